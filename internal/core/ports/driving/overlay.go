package driving

import (
	"context"

	"github.com/custodia-labs/draftline/internal/core/domain"
)

// OverlayService is the command surface the UI uses to drive highlights.
type OverlayService interface {
	// Mode returns the active mode.
	Mode() domain.Mode

	// SwitchMode activates mode. Stored collections are untouched.
	SwitchMode(mode domain.Mode) error

	// CycleMode advances comments -> flow -> flow-sentence -> comments.
	CycleMode() domain.Mode

	// AddCommentHighlights replaces the comment collection.
	AddCommentHighlights(items []domain.CommentAnnotation) domain.BatchResult

	// AddFlowHighlights replaces the flow collection.
	AddFlowHighlights(items []domain.FlowAnnotation) domain.BatchResult

	// AddReferenceHighlights replaces the reference collection.
	AddReferenceHighlights(items []domain.ReferenceAnnotation) domain.BatchResult

	// AddComment anchors a single user-written comment to text.
	AddComment(text, content string, issue domain.IssueType, severity domain.Severity) (domain.CommentAnnotation, error)

	// ClearCommentHighlights removes every comment.
	ClearCommentHighlights()

	// ClearFlowHighlights removes every flow highlight.
	ClearFlowHighlights()

	// ClearReferenceHighlights removes every reference.
	ClearReferenceHighlights()

	// ClearConnectionHighlights removes every sentence connection.
	ClearConnectionHighlights()

	// ClearAllHighlights removes every annotation in every category.
	ClearAllHighlights()

	// Annotations returns the stored annotations of a category in insertion order.
	Annotations(category domain.Category) []domain.Annotation

	// HandleFlowHover returns the explanation for a hovered sentence.
	// The boolean is false while a request for the same text is in flight.
	HandleFlowHover(ctx context.Context, text string, strength float64) (string, bool)

	// SetDocumentContext updates the full text used for explanations.
	SetDocumentContext(text string)

	// SetTopics updates the paragraph and essay topics used for explanations.
	SetTopics(paragraphTopic, essayTopic string)

	// TrackSentence captures the sentence around r and enters flow-sentence mode.
	TrackSentence(r domain.TextRange) (domain.TrackedSelection, error)

	// Tracked returns the active tracked selection, if any.
	Tracked() (domain.TrackedSelection, bool)

	// ClearTracking drops the tracked selection.
	ClearTracking()

	// RedoAnalysis re-finds the tracked sentence and requests fresh connections.
	RedoAnalysis(ctx context.Context) (domain.SentenceAnalysis, error)

	// ActionPanel returns the payload of the last redo analysis.
	ActionPanel() domain.SentenceAnalysis

	// RenderFrame returns the marks to paint for the active mode.
	RenderFrame() domain.RenderFrame

	// ExportState snapshots every collection and the active mode.
	ExportState() domain.OverlayState

	// ImportState replaces every collection and re-applies marks.
	ImportState(state domain.OverlayState) (domain.BatchResult, error)
}
