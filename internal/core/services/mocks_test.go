package services

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/draftline/internal/core/domain"
)

// mockAnalysis is a configurable AnalysisService.
type mockAnalysis struct {
	explainFn func(ctx context.Context, req domain.ExplainRequest) (domain.ExplainResponse, error)
	flowFn    func(ctx context.Context, req domain.FlowAnalysisRequest) (domain.FlowAnalysisResult, error)

	explainCalls atomic.Int32
	flowCalls    atomic.Int32

	mu       sync.Mutex
	explains []domain.ExplainRequest
	flows    []domain.FlowAnalysisRequest
}

func (m *mockAnalysis) ExplainConnection(ctx context.Context, req domain.ExplainRequest) (domain.ExplainResponse, error) {
	m.explainCalls.Add(1)
	m.mu.Lock()
	m.explains = append(m.explains, req)
	m.mu.Unlock()
	if m.explainFn != nil {
		return m.explainFn(ctx, req)
	}
	return domain.ExplainResponse{Explanation: "explained: " + req.Sentence}, nil
}

func (m *mockAnalysis) AnalyzeSentenceFlow(ctx context.Context, req domain.FlowAnalysisRequest) (domain.FlowAnalysisResult, error) {
	m.flowCalls.Add(1)
	m.mu.Lock()
	m.flows = append(m.flows, req)
	m.mu.Unlock()
	if m.flowFn != nil {
		return m.flowFn(ctx, req)
	}
	return domain.FlowAnalysisResult{}, nil
}

func (m *mockAnalysis) lastFlowRequest() domain.FlowAnalysisRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flows[len(m.flows)-1]
}

func (m *mockAnalysis) lastExplainRequest() domain.ExplainRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.explains[len(m.explains)-1]
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingPublisher) Publish(e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingPublisher) ofType(t domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingPublisher) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
