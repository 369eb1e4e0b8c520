package driven

import (
	"context"

	"github.com/custodia-labs/draftline/internal/core/domain"
)

// AnalysisService is the AI collaborator behind the network boundary.
// This is an optional service - when nil, hover explanations fall back to
// heuristics and redo analysis reports domain.ErrLLMUnavailable.
type AnalysisService interface {
	// ExplainConnection explains why a sentence connects to the document.
	ExplainConnection(ctx context.Context, req domain.ExplainRequest) (domain.ExplainResponse, error)

	// AnalyzeSentenceFlow finds the sentences connected to req.Sentence.
	AnalyzeSentenceFlow(ctx context.Context, req domain.FlowAnalysisRequest) (domain.FlowAnalysisResult, error)
}
