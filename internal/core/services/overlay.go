package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
	"github.com/custodia-labs/draftline/internal/core/ports/driving"
	"github.com/custodia-labs/draftline/internal/logger"
)

// Verify interface compliance.
var _ driving.OverlayService = (*OverlayManager)(nil)

// trackedAttrs are the mark attributes of a tracked sentence.
var trackedAttrs = map[string]string{"category": "tracked"}

// OverlayManager owns the annotation collections and the active mode.
// It reads the document and issues mark commands but never edits content.
//
// All state is guarded by one mutex. Calls to the analysis service happen
// without the lock held; their results are dropped if the mode, the
// tracked selection or the analysis generation changed meanwhile.
type OverlayManager struct {
	doc      driven.Document
	analysis driven.AnalysisService
	resolver *AnchorResolver
	expander *SentenceExpander
	hover    *HoverCache
	bridge   *RenderBridge

	mu          sync.Mutex
	mode        domain.Mode
	comments    *collection[domain.CommentAnnotation]
	flows       *collection[domain.FlowAnnotation]
	references  *collection[domain.ReferenceAnnotation]
	connections *collection[domain.ConnectionAnnotation]
	unanchored  map[string]struct{}
	tracked     *domain.TrackedSelection
	panel       domain.SentenceAnalysis
	generation  uint64
	reanchorer  *FuzzyReanchorer
	prompt      string
	topic       string
}

// NewOverlayManager creates an overlay manager for doc.
// analysis may be nil: hover explanations are then heuristic and
// RedoAnalysis reports domain.ErrLLMUnavailable. events may be nil.
func NewOverlayManager(
	doc driven.Document,
	analysis driven.AnalysisService,
	events driven.EventPublisher,
) *OverlayManager {
	return &OverlayManager{
		doc:         doc,
		analysis:    analysis,
		resolver:    NewAnchorResolver(),
		expander:    NewSentenceExpander(),
		hover:       NewHoverCache(analysis, events),
		bridge:      NewRenderBridge(events),
		mode:        domain.ModeComments,
		comments:    newCollection[domain.CommentAnnotation](),
		flows:       newCollection[domain.FlowAnnotation](),
		references:  newCollection[domain.ReferenceAnnotation](),
		connections: newCollection[domain.ConnectionAnnotation](),
		unanchored:  make(map[string]struct{}),
		panel:       domain.SentenceAnalysis{Status: domain.AnalysisIdle},
		reanchorer:  NewFuzzyReanchorer(domain.DefaultReanchorThreshold),
	}
}

// SetReanchorThreshold sets the keyword acceptance threshold used by RedoAnalysis.
func (m *OverlayManager) SetReanchorThreshold(threshold float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reanchorer = NewFuzzyReanchorer(threshold)
}

// SetAnalysisPrompt sets the instruction sent with sentence flow requests.
func (m *OverlayManager) SetAnalysisPrompt(prompt string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompt = prompt
}

// Mode returns the active mode.
func (m *OverlayManager) Mode() domain.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// SwitchMode activates mode. Switching to the active mode is a no-op.
// Leaving flow-sentence ends sentence tracking.
func (m *OverlayManager) SwitchMode(mode domain.Mode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, mode)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.switchModeLocked(mode)
	return nil
}

// CycleMode advances to the next mode and returns it.
func (m *OverlayManager) CycleMode() domain.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.mode.Next()
	m.switchModeLocked(next)
	return next
}

func (m *OverlayManager) switchModeLocked(mode domain.Mode) {
	from := m.mode
	if from == mode {
		return
	}
	m.mode = mode
	if from == domain.ModeFlowSentence {
		m.dropTrackingLocked()
	}
	logger.Debug("overlay: mode %s -> %s", from, mode)
	m.bridge.ModeChanged(from, mode, m.frameLocked())
}

// AddCommentHighlights replaces the comment collection with items.
func (m *OverlayManager) AddCommentHighlights(items []domain.CommentAnnotation) domain.BatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := addBatch(m, m.comments, domain.CategoryComment, items, false,
		func(c domain.CommentAnnotation, id string, r domain.TextRange, text string) domain.CommentAnnotation {
			c.ID, c.Range, c.CachedText = id, r, text
			return c
		})
	m.bridge.HighlightsChanged(domain.CategoryComment, m.comments.len(), m.frameLocked())
	return res
}

// AddFlowHighlights replaces the flow collection with items. Each anchor
// is grown to its enclosing sentence.
func (m *OverlayManager) AddFlowHighlights(items []domain.FlowAnnotation) domain.BatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := addBatch(m, m.flows, domain.CategoryFlow, items, true,
		func(f domain.FlowAnnotation, id string, r domain.TextRange, text string) domain.FlowAnnotation {
			f.ID, f.Range, f.CachedText = id, r, text
			f.ConnectionStrength = domain.ClampStrength(f.ConnectionStrength)
			return f
		})
	m.bridge.HighlightsChanged(domain.CategoryFlow, m.flows.len(), m.frameLocked())
	return res
}

// AddReferenceHighlights replaces the reference collection with items.
func (m *OverlayManager) AddReferenceHighlights(items []domain.ReferenceAnnotation) domain.BatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := addBatch(m, m.references, domain.CategoryReference, items, false, rebindReference)
	m.bridge.HighlightsChanged(domain.CategoryReference, m.references.len(), m.frameLocked())
	return res
}

// AddComment anchors a user-written comment to the first occurrence of text.
// Unlike AddCommentHighlights it keeps existing comments.
func (m *OverlayManager) AddComment(
	text, content string,
	issue domain.IssueType,
	severity domain.Severity,
) (domain.CommentAnnotation, error) {
	if strings.TrimSpace(text) == "" {
		return domain.CommentAnnotation{}, fmt.Errorf("%w: comment text is required", domain.ErrInvalidInput)
	}
	if severity == "" {
		severity = domain.SeverityMedium
	}
	if !severity.IsValid() {
		return domain.CommentAnnotation{}, fmt.Errorf("%w: unknown severity %q", domain.ErrInvalidInput, severity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, cached, err := m.resolveLocked(text, domain.TextRange{}, false)
	if err != nil {
		return domain.CommentAnnotation{}, err
	}
	c := domain.CommentAnnotation{
		ID:         uuid.New().String(),
		IssueType:  issue,
		Severity:   severity,
		Range:      r,
		Content:    content,
		CachedText: cached,
	}
	if err := m.doc.ApplyMark(r, domain.CategoryComment.MarkID(c.ID), c.Attrs()); err != nil {
		return domain.CommentAnnotation{}, fmt.Errorf("apply comment mark: %w", err)
	}
	m.comments.put(c)
	m.bridge.HighlightsChanged(domain.CategoryComment, m.comments.len(), m.frameLocked())
	return c, nil
}

// addBatch replaces c with items. Items are anchored and marked in input
// order; an item that cannot be anchored is skipped with a warning.
func addBatch[T domain.Annotation](
	m *OverlayManager,
	c *collection[T],
	category domain.Category,
	items []T,
	expand bool,
	rebind func(item T, id string, r domain.TextRange, text string) T,
) domain.BatchResult {
	clearCollection(m, c, category)

	var res domain.BatchResult
	for _, item := range items {
		id := item.AnnotationID()
		if id == "" {
			id = uuid.New().String()
		}

		r, text, err := m.resolveLocked(item.AnchorText(), item.Anchor(), expand)
		if err != nil {
			logger.Warn("overlay: skipping %s %s: %v", category, id, err)
			res.Skipped = append(res.Skipped, domain.SkippedItem{ID: id, Reason: err.Error()})
			continue
		}

		item = rebind(item, id, r, text)
		if err := m.doc.ApplyMark(r, category.MarkID(id), item.Attrs()); err != nil {
			logger.Warn("overlay: skipping %s %s: apply mark: %v", category, id, err)
			res.Skipped = append(res.Skipped, domain.SkippedItem{ID: id, Reason: err.Error()})
			continue
		}
		c.put(item)
	}
	res.Applied = c.len()
	return res
}

// resolveLocked anchors text. A hint is trusted when it is current and
// still covers text; otherwise the occurrence nearest the hint is used.
// With expand set the anchor grows to its enclosing sentence and the
// returned text is the sentence.
func (m *OverlayManager) resolveLocked(text string, hint domain.TextRange, expand bool) (domain.TextRange, string, error) {
	if strings.TrimSpace(text) == "" {
		return domain.TextRange{}, "", fmt.Errorf("%w: empty text", domain.ErrAnchorNotFound)
	}

	version := m.doc.Version()
	var (
		r   domain.TextRange
		err error
	)
	switch {
	case !hint.IsEmpty() && !hint.IsStale(version) && hint.InBounds(m.doc.TextLength()) &&
		m.doc.TextBetween(hint.From, hint.To) == text:
		r = hint
	case !hint.IsEmpty():
		r, err = m.resolver.FindNear(m.doc, text, hint.From)
	default:
		r, err = m.resolver.FindExact(m.doc, text)
	}
	if err != nil {
		return domain.TextRange{}, "", err
	}

	if expand {
		r = m.expander.Expand(m.doc, r)
		text = m.doc.TextBetween(r.From, r.To)
	}
	return r, text, nil
}

func clearCollection[T domain.Annotation](m *OverlayManager, c *collection[T], category domain.Category) {
	for _, id := range c.ids() {
		markID := category.MarkID(id)
		m.doc.RemoveMark(markID)
		delete(m.unanchored, markID)
	}
	c.clear()
}

// ClearCommentHighlights removes every comment and its mark.
func (m *OverlayManager) ClearCommentHighlights() {
	m.clear(domain.CategoryComment)
}

// ClearFlowHighlights removes every flow highlight and its mark.
func (m *OverlayManager) ClearFlowHighlights() {
	m.clear(domain.CategoryFlow)
}

// ClearReferenceHighlights removes every reference and its mark.
func (m *OverlayManager) ClearReferenceHighlights() {
	m.clear(domain.CategoryReference)
}

// ClearConnectionHighlights removes every sentence connection and its mark.
func (m *OverlayManager) ClearConnectionHighlights() {
	m.clear(domain.CategoryConnection)
}

// ClearAllHighlights removes every annotation in every category.
func (m *OverlayManager) ClearAllHighlights() {
	m.clear(domain.Categories...)
}

func (m *OverlayManager) clear(categories ...domain.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, category := range categories {
		m.clearLocked(category)
	}
	frame := m.frameLocked()
	for _, category := range categories {
		m.bridge.HighlightsChanged(category, 0, frame)
	}
}

func (m *OverlayManager) clearLocked(category domain.Category) {
	switch category {
	case domain.CategoryComment:
		clearCollection(m, m.comments, category)
	case domain.CategoryFlow:
		clearCollection(m, m.flows, category)
	case domain.CategoryReference:
		clearCollection(m, m.references, category)
	case domain.CategoryConnection:
		clearCollection(m, m.connections, category)
	}
}

// Annotations returns the stored annotations of category in insertion order.
func (m *OverlayManager) Annotations(category domain.Category) []domain.Annotation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.annotationsLocked(category)
}

func (m *OverlayManager) annotationsLocked(category domain.Category) []domain.Annotation {
	switch category {
	case domain.CategoryComment:
		return m.comments.annotations()
	case domain.CategoryFlow:
		return m.flows.annotations()
	case domain.CategoryReference:
		return m.references.annotations()
	case domain.CategoryConnection:
		return m.connections.annotations()
	default:
		return nil
	}
}

// HandleFlowHover returns the explanation for a hovered sentence. It
// returns ("", false) while an identical request is in flight.
func (m *OverlayManager) HandleFlowHover(ctx context.Context, text string, strength float64) (string, bool) {
	return m.hover.Handle(ctx, text, strength)
}

// SetDocumentContext updates the text sent with hover explanations.
func (m *OverlayManager) SetDocumentContext(text string) {
	m.hover.SetDocumentContext(text)
}

// SetTopics updates the topics sent with hover explanations and
// sentence flow requests.
func (m *OverlayManager) SetTopics(paragraphTopic, essayTopic string) {
	m.mu.Lock()
	m.topic = paragraphTopic
	m.mu.Unlock()
	m.hover.SetTopics(paragraphTopic, essayTopic)
}

// TrackSentence captures the sentence around r and enters flow-sentence
// mode. Connections from a previously tracked sentence are cleared.
func (m *OverlayManager) TrackSentence(r domain.TextRange) (domain.TrackedSelection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	version := m.doc.Version()
	if r.IsStale(version) {
		return domain.TrackedSelection{}, fmt.Errorf("%w: range %s, document at %d", domain.ErrStaleRange, r, version)
	}
	if !r.InBounds(m.doc.TextLength()) {
		return domain.TrackedSelection{}, fmt.Errorf("%w: range %s out of bounds", domain.ErrInvalidInput, r)
	}

	sentence := m.expander.Expand(m.doc, r)
	text := m.doc.TextBetween(sentence.From, sentence.To)
	if strings.TrimSpace(text) == "" {
		return domain.TrackedSelection{}, fmt.Errorf("%w: no sentence at %s", domain.ErrInvalidInput, r)
	}

	t := domain.TrackedSelection{
		ID:                uuid.New().String(),
		OriginalText:      text,
		SemanticKeywords:  ExtractKeywords(text),
		CapturedAtVersion: version,
		Range:             sentence,
	}
	if s, ok := sentenceAt(m.expander.Sentences(m.doc), sentence.From); ok {
		t.ParagraphIndex = s.Paragraph
		t.SentenceIndexInParagraph = s.Index
	}

	if m.tracked != nil {
		m.doc.RemoveMark(domain.TrackedMarkID(m.tracked.ID))
	}
	if err := m.doc.ApplyMark(sentence, domain.TrackedMarkID(t.ID), trackedAttrs); err != nil {
		logger.Warn("overlay: tracked mark not applied: %v", err)
	}
	m.tracked = &t
	m.generation++
	m.panel = domain.SentenceAnalysis{Sentence: text, Status: domain.AnalysisIdle}
	clearCollection(m, m.connections, domain.CategoryConnection)

	m.switchModeLocked(domain.ModeFlowSentence)
	m.bridge.HighlightsChanged(domain.CategoryConnection, 0, m.frameLocked())
	m.bridge.FocusChanged(m.tracked)
	return t, nil
}

// Tracked returns the active tracked selection.
func (m *OverlayManager) Tracked() (domain.TrackedSelection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tracked == nil {
		return domain.TrackedSelection{}, false
	}
	return *m.tracked, true
}

// ClearTracking drops the tracked selection. The mode is unchanged.
func (m *OverlayManager) ClearTracking() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropTrackingLocked()
}

func (m *OverlayManager) dropTrackingLocked() {
	if m.tracked == nil {
		return
	}
	m.doc.RemoveMark(domain.TrackedMarkID(m.tracked.ID))
	m.tracked = nil
	m.generation++
	m.panel = domain.SentenceAnalysis{Status: domain.AnalysisIdle}
	m.bridge.FocusChanged(nil)
}

// RedoAnalysis re-finds the tracked sentence and replaces the connection
// set with fresh results. On failure the previous connections are kept
// and the action panel records the error.
func (m *OverlayManager) RedoAnalysis(ctx context.Context) (domain.SentenceAnalysis, error) {
	m.mu.Lock()
	if m.tracked == nil {
		m.mu.Unlock()
		return domain.SentenceAnalysis{}, domain.ErrNoTrackedSelection
	}
	if m.analysis == nil {
		m.mu.Unlock()
		return domain.SentenceAnalysis{}, domain.ErrLLMUnavailable
	}
	m.generation++
	gen := m.generation
	tracked := *m.tracked
	reanchorer := m.reanchorer
	prompt, topic := m.prompt, m.topic
	m.panel.Status = domain.AnalysisRunning
	m.panel.Error = ""
	m.mu.Unlock()

	reloc := reanchorer.Relocate(m.doc, tracked)
	version := m.doc.Version()
	req := domain.FlowAnalysisRequest{
		Sentence:       reloc.Text,
		Document:       m.doc.TextBetween(0, m.doc.TextLength()),
		Prompt:         prompt,
		ParagraphTopic: topic,
	}
	logger.Debug("overlay: redo analysis via %s (score %.2f)", reloc.Strategy, reloc.Score)

	result, err := m.analysis.AnalyzeSentenceFlow(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation || m.mode != domain.ModeFlowSentence || m.tracked == nil || m.tracked.ID != tracked.ID {
		logger.Debug("overlay: dropping stale analysis for %q", truncate(reloc.Text, 40))
		return domain.SentenceAnalysis{}, domain.ErrStaleResult
	}

	if err != nil {
		m.panel.Sentence = reloc.Text
		m.panel.Relocation = reloc
		m.panel.Status = domain.AnalysisFailed
		m.panel.Error = err.Error()
		m.bridge.Publish(domain.Event{
			Type:    domain.EventAnalysisFailed,
			Payload: domain.AnalysisFailedPayload{Sentence: reloc.Text, Err: err},
		})
		return m.panelLocked(), fmt.Errorf("%w: %w", domain.ErrServiceFailure, err)
	}

	clearCollection(m, m.connections, domain.CategoryConnection)
	for _, conn := range result.Result {
		hint := conn.Position
		hint.Version = version
		r, text, rerr := m.resolveLocked(conn.Text, hint, true)
		if rerr != nil {
			logger.Warn("overlay: skipping connection: %v", rerr)
			continue
		}
		c := domain.ConnectionAnnotation{
			ID:         uuid.New().String(),
			Strength:   domain.ClampStrength(conn.ConnectionStrength),
			Reason:     conn.Reason,
			Range:      r,
			CachedText: text,
		}
		if aerr := m.doc.ApplyMark(r, domain.CategoryConnection.MarkID(c.ID), c.Attrs()); aerr != nil {
			logger.Warn("overlay: skipping connection %s: apply mark: %v", c.ID, aerr)
			continue
		}
		m.connections.put(c)
	}

	if !reloc.IsFallback() {
		m.tracked.OriginalText = reloc.Text
		m.tracked.SemanticKeywords = ExtractKeywords(reloc.Text)
		m.tracked.Range = reloc.Range
		m.tracked.CapturedAtVersion = reloc.Range.Version
		if aerr := m.doc.ApplyMark(reloc.Range, domain.TrackedMarkID(m.tracked.ID), trackedAttrs); aerr != nil {
			logger.Warn("overlay: tracked mark not refreshed: %v", aerr)
		}
	}

	m.panel = domain.SentenceAnalysis{
		Sentence:          reloc.Text,
		Relocation:        reloc,
		Connections:       m.connections.list(),
		ParagraphCohesion: result.ParagraphCohesion,
		DocumentCohesion:  result.DocumentCohesion,
		Status:            domain.AnalysisSucceeded,
	}
	panel := m.panelLocked()

	m.bridge.HighlightsChanged(domain.CategoryConnection, m.connections.len(), m.frameLocked())
	m.bridge.Publish(domain.Event{
		Type:    domain.EventAnalysisCompleted,
		Payload: domain.AnalysisCompletedPayload{Analysis: panel},
	})
	return panel, nil
}

// ActionPanel returns the payload of the last redo analysis.
func (m *OverlayManager) ActionPanel() domain.SentenceAnalysis {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.panelLocked()
}

func (m *OverlayManager) panelLocked() domain.SentenceAnalysis {
	p := m.panel
	p.Connections = append([]domain.ConnectionAnnotation(nil), m.panel.Connections...)
	return p
}

// RenderFrame returns the marks to paint for the active mode, at their
// current positions.
func (m *OverlayManager) RenderFrame() domain.RenderFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frameLocked()
}

func (m *OverlayManager) frameLocked() domain.RenderFrame {
	frame := domain.RenderFrame{Mode: m.mode}
	for _, category := range m.mode.Categories() {
		for _, a := range m.annotationsLocked(category) {
			markID := category.MarkID(a.AnnotationID())
			if _, ok := m.unanchored[markID]; ok {
				continue
			}
			r := a.Anchor()
			if live, ok := m.doc.MarkRange(markID); ok {
				r = live
			}
			frame.Marks = append(frame.Marks, domain.RenderMark{
				MarkID:   markID,
				Category: category,
				Range:    r,
				Attrs:    a.Attrs(),
			})
		}
	}
	return frame
}

// ExportState snapshots every collection, the tracked selection and the
// active mode. Ranges are refreshed from live mark positions.
func (m *OverlayManager) ExportState() domain.OverlayState {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := domain.OverlayState{
		SchemaVersion: domain.OverlayStateVersion,
		Mode:          m.mode,
		Comments:      m.comments.list(),
		Flows:         m.flows.list(),
		References:    m.references.list(),
		Connections:   m.connections.list(),
	}
	for i := range state.Comments {
		state.Comments[i].Range = m.liveRangeLocked(domain.CategoryComment, state.Comments[i].ID, state.Comments[i].Range)
	}
	for i := range state.Flows {
		state.Flows[i].Range = m.liveRangeLocked(domain.CategoryFlow, state.Flows[i].ID, state.Flows[i].Range)
	}
	for i := range state.References {
		state.References[i].Range = m.liveRangeLocked(domain.CategoryReference, state.References[i].ID, state.References[i].Range)
	}
	for i := range state.Connections {
		state.Connections[i].Range = m.liveRangeLocked(domain.CategoryConnection, state.Connections[i].ID, state.Connections[i].Range)
	}
	if m.tracked != nil {
		t := *m.tracked
		t.SemanticKeywords = append([]string(nil), m.tracked.SemanticKeywords...)
		if live, ok := m.doc.MarkRange(domain.TrackedMarkID(t.ID)); ok {
			t.Range = live
		}
		state.Tracked = &t
	}
	return state
}

func (m *OverlayManager) liveRangeLocked(category domain.Category, id string, stored domain.TextRange) domain.TextRange {
	if live, ok := m.doc.MarkRange(category.MarkID(id)); ok {
		return live
	}
	return stored
}

// ImportState replaces every collection with state and re-applies marks.
// Items whose text can no longer be found are kept unmarked and reported
// as skipped, so a later export still contains them.
func (m *OverlayManager) ImportState(state domain.OverlayState) (domain.BatchResult, error) {
	if state.SchemaVersion != 0 && state.SchemaVersion != domain.OverlayStateVersion {
		return domain.BatchResult{}, fmt.Errorf("%w: unsupported state schema %d", domain.ErrInvalidInput, state.SchemaVersion)
	}
	mode := state.Mode
	if mode == "" {
		mode = domain.ModeComments
	}
	if !mode.IsValid() {
		return domain.BatchResult{}, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, mode)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, category := range domain.Categories {
		m.clearLocked(category)
	}
	m.dropTrackingLocked()
	m.switchModeLocked(mode)

	var res domain.BatchResult
	importItems(m, m.comments, domain.CategoryComment, state.Comments, &res,
		func(c domain.CommentAnnotation, id string, r domain.TextRange, _ string) domain.CommentAnnotation {
			c.ID, c.Range = id, r
			return c
		})
	importItems(m, m.flows, domain.CategoryFlow, state.Flows, &res,
		func(f domain.FlowAnnotation, id string, r domain.TextRange, _ string) domain.FlowAnnotation {
			f.ID, f.Range = id, r
			return f
		})
	importItems(m, m.references, domain.CategoryReference, state.References, &res, rebindReference)
	importItems(m, m.connections, domain.CategoryConnection, state.Connections, &res,
		func(c domain.ConnectionAnnotation, id string, r domain.TextRange, _ string) domain.ConnectionAnnotation {
			c.ID, c.Range = id, r
			return c
		})

	if state.Tracked != nil && mode == domain.ModeFlowSentence {
		t := *state.Tracked
		reloc := m.reanchorer.Relocate(m.doc, t)
		if !reloc.IsFallback() {
			t.Range = reloc.Range
			if err := m.doc.ApplyMark(reloc.Range, domain.TrackedMarkID(t.ID), trackedAttrs); err != nil {
				logger.Warn("overlay: tracked mark not applied: %v", err)
			}
		}
		m.tracked = &t
		m.panel = domain.SentenceAnalysis{Sentence: t.OriginalText, Status: domain.AnalysisIdle}
		m.bridge.FocusChanged(m.tracked)
	}
	m.generation++

	frame := m.frameLocked()
	for _, category := range domain.Categories {
		m.bridge.HighlightsChanged(category, len(m.annotationsLocked(category)), frame)
	}
	logger.Debug("overlay: imported %d annotations, %d unanchored", res.Applied+len(res.Skipped), len(res.Skipped))
	return res, nil
}

// importItems stores every item of a snapshot. Anchored items get a mark;
// the rest are stored as-is and recorded in res.Skipped.
func importItems[T domain.Annotation](
	m *OverlayManager,
	c *collection[T],
	category domain.Category,
	items []T,
	res *domain.BatchResult,
	rebind func(item T, id string, r domain.TextRange, text string) T,
) {
	for _, item := range items {
		id := item.AnnotationID()
		if id == "" {
			id = uuid.New().String()
		}
		markID := category.MarkID(id)

		r, _, err := m.resolveLocked(item.AnchorText(), item.Anchor(), false)
		if err == nil {
			item = rebind(item, id, r, item.AnchorText())
			err = m.doc.ApplyMark(r, markID, item.Attrs())
		} else {
			item = rebind(item, id, item.Anchor(), item.AnchorText())
		}
		if err != nil {
			logger.Warn("overlay: %s %s imported without a mark: %v", category, id, err)
			res.Skipped = append(res.Skipped, domain.SkippedItem{ID: id, Reason: err.Error()})
			m.unanchored[markID] = struct{}{}
		} else {
			res.Applied++
		}
		c.put(item)
	}
}

func rebindReference(ref domain.ReferenceAnnotation, id string, r domain.TextRange, text string) domain.ReferenceAnnotation {
	ref.ID, ref.Range, ref.SourceText = id, r, text
	return ref
}
