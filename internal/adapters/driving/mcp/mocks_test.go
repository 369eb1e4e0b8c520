package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/draftline/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/draftline/internal/core/domain"
)

const catText = "The cat sat. The cat ran fast."

// mockAnalysis is a canned AnalysisService.
type mockAnalysis struct {
	explanation string
	err         error
}

func (m *mockAnalysis) ExplainConnection(_ context.Context, _ domain.ExplainRequest) (domain.ExplainResponse, error) {
	if m.err != nil {
		return domain.ExplainResponse{}, m.err
	}
	return domain.ExplainResponse{Explanation: m.explanation}, nil
}

func (m *mockAnalysis) AnalyzeSentenceFlow(_ context.Context, _ domain.FlowAnalysisRequest) (domain.FlowAnalysisResult, error) {
	return domain.FlowAnalysisResult{}, m.err
}

func newTestServer(t *testing.T, ports *Ports) (*Server, *memory.StateStore) {
	t.Helper()
	states := memory.NewStateStore()
	if ports == nil {
		ports = &Ports{}
	}
	ports.States = states
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server, states
}

func writeDoc(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "essay.md")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func annotations() domain.OverlayState {
	return domain.OverlayState{
		SchemaVersion: domain.OverlayStateVersion,
		Mode:          domain.ModeComments,
		Comments: []domain.CommentAnnotation{{
			ID:         "c1",
			IssueType:  domain.IssueClarity,
			Severity:   domain.SeverityHigh,
			Range:      domain.NewTextRange(13, 30, 1),
			Content:    "Vague.",
			CachedText: "The cat ran fast.",
		}},
		Flows: []domain.FlowAnnotation{{
			ID:                 "f1",
			ConnectionStrength: 0.9,
			Range:              domain.NewTextRange(0, 12, 1),
			CachedText:         "The cat sat.",
		}},
	}
}
