package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/services"
)

// RangeOutput is a located span of document text.
type RangeOutput struct {
	From    int    `json:"from"`
	To      int    `json:"to"`
	Version uint64 `json:"version"`
	Text    string `json:"text"`
}

// FindInput is the input schema for the find_text tool.
type FindInput struct {
	Path string `json:"path" jsonschema:"path of the document to search"`
	Text string `json:"text" jsonschema:"exact text to locate"`
	All  bool   `json:"all,omitempty" jsonschema:"report every occurrence instead of the first"`
	Near *int   `json:"near,omitempty" jsonschema:"prefer the occurrence closest to this rune offset"`
}

// FindOutput is the output schema for the find_text tool.
type FindOutput struct {
	Ranges []RangeOutput `json:"ranges"`
	Count  int           `json:"count"`
}

// SentencesInput is the input schema for the list_sentences tool.
type SentencesInput struct {
	Path string `json:"path" jsonschema:"path of the document to split"`
}

// SentenceOutput is one sentence of the document.
type SentenceOutput struct {
	Paragraph int `json:"paragraph"`
	Index     int `json:"index"`
	RangeOutput
}

// SentencesOutput is the output schema for the list_sentences tool.
type SentencesOutput struct {
	Sentences []SentenceOutput `json:"sentences"`
}

// ReanchorInput is the input schema for the reanchor tool.
type ReanchorInput struct {
	Path      string  `json:"path" jsonschema:"path of the edited document"`
	Sentence  string  `json:"sentence" jsonschema:"the sentence as it was originally captured"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"keyword overlap a match must exceed, in [0, 1] (default from settings)"`
}

// ReanchorOutput is the output schema for the reanchor tool.
type ReanchorOutput struct {
	Strategy  string       `json:"strategy"`
	Score     float64      `json:"score"`
	Threshold float64      `json:"threshold"`
	Match     *RangeOutput `json:"match,omitempty"`
}

// RenderInput is the input schema for the render_highlights tool.
type RenderInput struct {
	Path string `json:"path" jsonschema:"path of the document"`
	Mode string `json:"mode,omitempty" jsonschema:"comments, flow or flow-sentence (default: stored mode)"`
}

// MarkOutput is one visible highlight.
type MarkOutput struct {
	MarkID   string            `json:"mark_id"`
	Category string            `json:"category"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	RangeOutput
}

// RenderOutput is the output schema for the render_highlights tool.
type RenderOutput struct {
	Mode        string       `json:"mode"`
	Description string       `json:"description"`
	Marks       []MarkOutput `json:"marks"`
	Tracked     *RangeOutput `json:"tracked,omitempty"`
}

// SaveInput is the input schema for the save_annotations tool.
type SaveInput struct {
	Path  string              `json:"path" jsonschema:"path of the document the annotations belong to"`
	State domain.OverlayState `json:"state" jsonschema:"overlay snapshot with comments, flows and references"`
}

// SkippedOutput names an annotation that did not anchor.
type SkippedOutput struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// SaveOutput is the output schema for the save_annotations tool.
type SaveOutput struct {
	Key      string          `json:"key"`
	Anchored int             `json:"anchored"`
	Total    int             `json:"total"`
	Skipped  []SkippedOutput `json:"skipped,omitempty"`
}

// ExplainInput is the input schema for the explain_connection tool.
type ExplainInput struct {
	Path     string  `json:"path" jsonschema:"path of the document giving context"`
	Sentence string  `json:"sentence" jsonschema:"the sentence to explain"`
	Strength float64 `json:"strength" jsonschema:"connection strength in [0, 1]"`
	Topic    string  `json:"topic,omitempty" jsonschema:"essay topic passed to the model"`
}

// ExplainOutput is the output schema for the explain_connection tool.
type ExplainOutput struct {
	Explanation string `json:"explanation"`
	Bucket      string `json:"bucket"`
	Heuristic   bool   `json:"heuristic"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_text",
		Description: "Locate text in a document and return its rune range",
	}, s.handleFind)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sentences",
		Description: "Split a document into sentences with their rune ranges",
	}, s.handleSentences)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reanchor",
		Description: "Re-find a previously captured sentence after the document was edited",
	}, s.handleReanchor)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "render_highlights",
		Description: "List the highlights visible in a mode for the stored overlay of a document",
	}, s.handleRender)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "save_annotations",
		Description: "Anchor annotations to a document and store the resulting overlay",
	}, s.handleSave)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "explain_connection",
		Description: "Explain how strongly a sentence connects to its surroundings",
	}, s.handleExplain)
}

func rangeOutput(r domain.TextRange, text string) RangeOutput {
	return RangeOutput{From: r.From, To: r.To, Version: r.Version, Text: text}
}

func (s *Server) handleFind(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindInput,
) (*mcp.CallToolResult, FindOutput, error) {
	sess, _, err := s.open(ctx, input.Path, false)
	if err != nil {
		return nil, FindOutput{}, err
	}
	resolver := services.NewAnchorResolver()

	var ranges []domain.TextRange
	switch {
	case input.All:
		ranges, err = resolver.FindAll(sess.doc, input.Text)
	case input.Near != nil:
		var r domain.TextRange
		r, err = resolver.FindNear(sess.doc, input.Text, *input.Near)
		ranges = []domain.TextRange{r}
	default:
		var r domain.TextRange
		r, err = resolver.FindExact(sess.doc, input.Text)
		ranges = []domain.TextRange{r}
	}
	if err != nil {
		return nil, FindOutput{}, err
	}

	output := FindOutput{Ranges: make([]RangeOutput, len(ranges)), Count: len(ranges)}
	for i, r := range ranges {
		output.Ranges[i] = rangeOutput(r, sess.doc.TextBetween(r.From, r.To))
	}
	return nil, output, nil
}

func (s *Server) handleSentences(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SentencesInput,
) (*mcp.CallToolResult, SentencesOutput, error) {
	sess, _, err := s.open(ctx, input.Path, false)
	if err != nil {
		return nil, SentencesOutput{}, err
	}

	sentences := services.NewSentenceExpander().Sentences(sess.doc)
	output := SentencesOutput{Sentences: make([]SentenceOutput, len(sentences))}
	for i, sent := range sentences {
		output.Sentences[i] = SentenceOutput{
			Paragraph:   sent.Paragraph,
			Index:       sent.Index,
			RangeOutput: rangeOutput(sent.Range, sent.Text),
		}
	}
	return nil, output, nil
}

func (s *Server) handleReanchor(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReanchorInput,
) (*mcp.CallToolResult, ReanchorOutput, error) {
	if input.Sentence == "" {
		return nil, ReanchorOutput{}, fmt.Errorf("%w: sentence is required", domain.ErrInvalidInput)
	}
	threshold := s.ports.threshold()
	if input.Threshold != nil {
		if err := domain.ValidateReanchorThreshold(*input.Threshold); err != nil {
			return nil, ReanchorOutput{}, err
		}
		threshold = *input.Threshold
	}
	sess, _, err := s.open(ctx, input.Path, false)
	if err != nil {
		return nil, ReanchorOutput{}, err
	}
	tracked := domain.TrackedSelection{
		ID:               "mcp",
		OriginalText:     input.Sentence,
		SemanticKeywords: services.ExtractKeywords(input.Sentence),
	}
	reloc := services.NewFuzzyReanchorer(threshold).Relocate(sess.doc, tracked)

	output := ReanchorOutput{Strategy: string(reloc.Strategy), Score: reloc.Score, Threshold: threshold}
	if !reloc.IsFallback() {
		match := rangeOutput(reloc.Range, reloc.Text)
		output.Match = &match
	}
	return nil, output, nil
}

func (s *Server) handleRender(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RenderInput,
) (*mcp.CallToolResult, RenderOutput, error) {
	sess, _, err := s.open(ctx, input.Path, true)
	if err != nil {
		return nil, RenderOutput{}, err
	}
	if input.Mode != "" {
		mode, err := domain.ParseMode(input.Mode)
		if err != nil {
			return nil, RenderOutput{}, err
		}
		if err := sess.overlay.SwitchMode(mode); err != nil {
			return nil, RenderOutput{}, err
		}
	}

	frame := sess.overlay.RenderFrame()
	output := RenderOutput{
		Mode:        string(frame.Mode),
		Description: frame.Mode.Description(),
		Marks:       make([]MarkOutput, len(frame.Marks)),
	}
	for i, m := range frame.Marks {
		output.Marks[i] = MarkOutput{
			MarkID:      m.MarkID,
			Category:    string(m.Category),
			Attrs:       m.Attrs,
			RangeOutput: rangeOutput(m.Range, sess.doc.TextBetween(m.Range.From, m.Range.To)),
		}
	}
	if tracked, ok := sess.overlay.Tracked(); ok && frame.Mode == domain.ModeFlowSentence {
		r := tracked.Range
		if live, ok := sess.doc.MarkRange(domain.TrackedMarkID(tracked.ID)); ok {
			r = live
		}
		out := rangeOutput(r, sess.doc.TextBetween(r.From, r.To))
		output.Tracked = &out
	}
	return nil, output, nil
}

func (s *Server) handleSave(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SaveInput,
) (*mcp.CallToolResult, SaveOutput, error) {
	sess, _, err := s.open(ctx, input.Path, false)
	if err != nil {
		return nil, SaveOutput{}, err
	}

	res, err := sess.overlay.ImportState(input.State)
	if err != nil {
		return nil, SaveOutput{}, err
	}
	if err := s.ports.States.Save(ctx, sess.key, sess.overlay.ExportState()); err != nil {
		return nil, SaveOutput{}, fmt.Errorf("saving state: %w", err)
	}

	output := SaveOutput{Key: sess.key, Anchored: res.Applied, Total: input.State.Count()}
	for _, item := range res.Skipped {
		output.Skipped = append(output.Skipped, SkippedOutput(item))
	}
	return nil, output, nil
}

func (s *Server) handleExplain(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExplainInput,
) (*mcp.CallToolResult, ExplainOutput, error) {
	sess, _, err := s.open(ctx, input.Path, false)
	if err != nil {
		return nil, ExplainOutput{}, err
	}

	sess.overlay.SetDocumentContext(sess.doc.Text())
	if input.Topic != "" {
		sess.overlay.SetTopics("", input.Topic)
	}
	explanation, ok := sess.overlay.HandleFlowHover(ctx, input.Sentence, input.Strength)
	if !ok {
		return nil, ExplainOutput{}, fmt.Errorf("%w: sentence is required", domain.ErrInvalidInput)
	}

	return nil, ExplainOutput{
		Explanation: explanation,
		Bucket:      string(domain.BucketFor(domain.ClampStrength(input.Strength))),
		Heuristic:   s.ports.Analysis == nil,
	}, nil
}
