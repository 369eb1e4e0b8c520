package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/draftline/internal/core/domain"
)

func TestServer_handleFind(t *testing.T) {
	ctx := context.Background()
	near := 25

	tests := []struct {
		name  string
		input FindInput
		want  []RangeOutput
	}{
		{
			name:  "first occurrence",
			input: FindInput{Text: "The cat"},
			want:  []RangeOutput{{From: 0, To: 7, Version: 1, Text: "The cat"}},
		},
		{
			name:  "all occurrences",
			input: FindInput{Text: "The cat", All: true},
			want: []RangeOutput{
				{From: 0, To: 7, Version: 1, Text: "The cat"},
				{From: 13, To: 20, Version: 1, Text: "The cat"},
			},
		},
		{
			name:  "near hint",
			input: FindInput{Text: "The cat", Near: &near},
			want:  []RangeOutput{{From: 13, To: 20, Version: 1, Text: "The cat"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(t, nil)
			tt.input.Path = writeDoc(t, catText)

			_, output, err := server.handleFind(ctx, nil, tt.input)

			require.NoError(t, err)
			assert.Equal(t, len(tt.want), output.Count)
			assert.Equal(t, tt.want, output.Ranges)
		})
	}

	t.Run("not found", func(t *testing.T) {
		server, _ := newTestServer(t, nil)
		_, _, err := server.handleFind(ctx, nil, FindInput{Path: writeDoc(t, catText), Text: "The dog"})
		assert.ErrorIs(t, err, domain.ErrAnchorNotFound)
	})
}

func TestServer_handleSentences(t *testing.T) {
	server, _ := newTestServer(t, nil)
	path := writeDoc(t, catText+"\n\nDogs bark.")

	_, output, err := server.handleSentences(context.Background(), nil, SentencesInput{Path: path})

	require.NoError(t, err)
	require.Len(t, output.Sentences, 3)
	assert.Equal(t, "The cat ran fast.", output.Sentences[1].Text)
	assert.Equal(t, 0, output.Sentences[1].Paragraph)
	assert.Equal(t, 1, output.Sentences[1].Index)
	assert.Equal(t, 1, output.Sentences[2].Paragraph)
	assert.Equal(t, 32, output.Sentences[2].From)
}

func TestServer_handleReanchor(t *testing.T) {
	ctx := context.Background()

	t.Run("keyword match", func(t *testing.T) {
		server, _ := newTestServer(t, nil)
		path := writeDoc(t, "The cat sat. The cat ran very fast.")

		_, output, err := server.handleReanchor(ctx, nil, ReanchorInput{Path: path, Sentence: "The cat ran fast."})

		require.NoError(t, err)
		assert.Equal(t, string(domain.RelocatedByKeywords), output.Strategy)
		require.NotNil(t, output.Match)
		assert.Equal(t, "The cat ran very fast.", output.Match.Text)
		assert.Equal(t, 13, output.Match.From)
		assert.Equal(t, 35, output.Match.To)
	})

	t.Run("fallback below threshold", func(t *testing.T) {
		server, _ := newTestServer(t, nil)
		path := writeDoc(t, "The cat sat. The feline sprinted quickly.")

		_, output, err := server.handleReanchor(ctx, nil, ReanchorInput{Path: path, Sentence: "The cat ran fast."})

		require.NoError(t, err)
		assert.Equal(t, string(domain.RelocatedFallback), output.Strategy)
		assert.Nil(t, output.Match)
	})

	t.Run("threshold from ports", func(t *testing.T) {
		low := 0.2
		server, _ := newTestServer(t, &Ports{Threshold: &low})
		path := writeDoc(t, "The cat sat. The feline sprinted quickly.")

		_, output, err := server.handleReanchor(ctx, nil, ReanchorInput{Path: path, Sentence: "The cat ran fast."})

		require.NoError(t, err)
		require.NotNil(t, output.Match)
		assert.Equal(t, "The cat sat.", output.Match.Text)
	})

	t.Run("threshold one never accepts keywords", func(t *testing.T) {
		server, _ := newTestServer(t, nil)
		path := writeDoc(t, "The cat sat. The cat ran very fast.")
		one := 1.0

		_, output, err := server.handleReanchor(ctx, nil, ReanchorInput{Path: path, Sentence: "The cat ran fast.", Threshold: &one})

		require.NoError(t, err)
		assert.Equal(t, string(domain.RelocatedFallback), output.Strategy)
		assert.InDelta(t, 1.0, output.Score, 1e-9)
		assert.Equal(t, 1.0, output.Threshold)
		assert.Nil(t, output.Match)
	})

	t.Run("threshold zero is honoured", func(t *testing.T) {
		server, _ := newTestServer(t, nil)
		path := writeDoc(t, "The cat sat. The feline sprinted quickly.")
		zero := 0.0

		_, output, err := server.handleReanchor(ctx, nil, ReanchorInput{Path: path, Sentence: "The cat ran fast.", Threshold: &zero})

		require.NoError(t, err)
		assert.Equal(t, 0.0, output.Threshold)
		require.NotNil(t, output.Match)
		assert.Equal(t, "The cat sat.", output.Match.Text)
	})

	t.Run("threshold out of range", func(t *testing.T) {
		server, _ := newTestServer(t, nil)
		for _, v := range []float64{-0.1, 1.5} {
			bad := v
			_, _, err := server.handleReanchor(ctx, nil, ReanchorInput{Path: writeDoc(t, catText), Sentence: "The cat ran fast.", Threshold: &bad})
			assert.ErrorIs(t, err, domain.ErrInvalidInput, v)
		}
	})

	t.Run("blank sentence", func(t *testing.T) {
		server, _ := newTestServer(t, nil)
		_, _, err := server.handleReanchor(ctx, nil, ReanchorInput{Path: writeDoc(t, catText)})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleSaveAndRender(t *testing.T) {
	ctx := context.Background()
	server, states := newTestServer(t, nil)
	path := writeDoc(t, catText)

	_, saved, err := server.handleSave(ctx, nil, SaveInput{Path: path, State: annotations()})
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Anchored)
	assert.Equal(t, 2, saved.Total)
	assert.Empty(t, saved.Skipped)

	stored, err := states.Load(ctx, saved.Key)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Count())

	t.Run("stored mode", func(t *testing.T) {
		_, output, err := server.handleRender(ctx, nil, RenderInput{Path: path})

		require.NoError(t, err)
		assert.Equal(t, string(domain.ModeComments), output.Mode)
		require.Len(t, output.Marks, 1)
		assert.Equal(t, "The cat ran fast.", output.Marks[0].Text)
		assert.Equal(t, "high", output.Marks[0].Attrs["severity"])
		assert.Nil(t, output.Tracked)
	})

	t.Run("flow mode", func(t *testing.T) {
		_, output, err := server.handleRender(ctx, nil, RenderInput{Path: path, Mode: "flow"})

		require.NoError(t, err)
		require.Len(t, output.Marks, 1)
		assert.Equal(t, string(domain.CategoryFlow), output.Marks[0].Category)
		assert.Equal(t, "The cat sat.", output.Marks[0].Text)
		assert.Equal(t, string(domain.BucketStrong), output.Marks[0].Attrs["bucket"])
	})

	t.Run("invalid mode", func(t *testing.T) {
		_, _, err := server.handleRender(ctx, nil, RenderInput{Path: path, Mode: "outline"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleSave_ReportsUnanchored(t *testing.T) {
	server, _ := newTestServer(t, nil)
	path := writeDoc(t, "The cat sat. The dog slept.")

	_, output, err := server.handleSave(context.Background(), nil, SaveInput{Path: path, State: annotations()})

	require.NoError(t, err)
	assert.Equal(t, 1, output.Anchored)
	require.Len(t, output.Skipped, 1)
	assert.Equal(t, "c1", output.Skipped[0].ID)
}

func TestServer_handleRender_Tracked(t *testing.T) {
	ctx := context.Background()
	server, _ := newTestServer(t, nil)
	path := writeDoc(t, catText)
	state := domain.OverlayState{
		Mode: domain.ModeFlowSentence,
		Tracked: &domain.TrackedSelection{
			ID:                "t1",
			OriginalText:      "The cat ran fast.",
			SemanticKeywords:  []string{"cat", "ran", "fast"},
			CapturedAtVersion: 1,
			Range:             domain.NewTextRange(13, 30, 1),
		},
	}
	_, _, err := server.handleSave(ctx, nil, SaveInput{Path: path, State: state})
	require.NoError(t, err)

	_, output, err := server.handleRender(ctx, nil, RenderInput{Path: path})

	require.NoError(t, err)
	require.NotNil(t, output.Tracked)
	assert.Equal(t, "The cat ran fast.", output.Tracked.Text)
}

func TestServer_handleExplain(t *testing.T) {
	ctx := context.Background()

	t.Run("heuristic without analysis", func(t *testing.T) {
		server, _ := newTestServer(t, nil)
		input := ExplainInput{Path: writeDoc(t, catText), Sentence: "The cat ran fast.", Strength: 0.9}

		_, output, err := server.handleExplain(ctx, nil, input)

		require.NoError(t, err)
		assert.True(t, output.Heuristic)
		assert.Equal(t, string(domain.BucketStrong), output.Bucket)
		assert.NotEmpty(t, output.Explanation)
	})

	t.Run("uses analysis service", func(t *testing.T) {
		server, _ := newTestServer(t, &Ports{Analysis: &mockAnalysis{explanation: "Both follow the cat."}})
		input := ExplainInput{Path: writeDoc(t, catText), Sentence: "The cat ran fast.", Strength: 0.5}

		_, output, err := server.handleExplain(ctx, nil, input)

		require.NoError(t, err)
		assert.False(t, output.Heuristic)
		assert.Equal(t, "Both follow the cat.", output.Explanation)
	})

	t.Run("service failure falls back", func(t *testing.T) {
		server, _ := newTestServer(t, &Ports{Analysis: &mockAnalysis{err: errors.New("boom")}})
		input := ExplainInput{Path: writeDoc(t, catText), Sentence: "The cat ran fast.", Strength: 0.1}

		_, output, err := server.handleExplain(ctx, nil, input)

		require.NoError(t, err)
		assert.NotContains(t, output.Explanation, "boom")
	})

	t.Run("blank sentence", func(t *testing.T) {
		server, _ := newTestServer(t, nil)
		_, _, err := server.handleExplain(ctx, nil, ExplainInput{Path: writeDoc(t, catText), Sentence: "  "})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
