package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
	"github.com/custodia-labs/draftline/internal/logger"
)

// Heuristic explanations used when the analysis service is unavailable.
const (
	fallbackStrong   = "Strong thematic and vocabulary connections"
	fallbackModerate = "Moderate thematic connections with some shared vocabulary"
	fallbackLimited  = "Limited connections to surrounding content"
)

// FallbackExplanation returns the heuristic explanation for a connection strength.
func FallbackExplanation(strength float64) string {
	switch domain.BucketFor(strength) {
	case domain.BucketStrong:
		return fallbackStrong
	case domain.BucketModerate:
		return fallbackModerate
	default:
		return fallbackLimited
	}
}

// HoverCache deduplicates and caches "why does this connect" explanations.
//
// Entries are keyed by the exact sentence text. Changing the document
// context or the topics invalidates the whole cache and bumps a generation
// counter; responses that resolve under an older generation are dropped.
type HoverCache struct {
	service driven.AnalysisService
	events  driven.EventPublisher

	mu             sync.Mutex
	cache          map[string]string
	inFlight       map[string]uint64
	generation     uint64
	docContext     string
	paragraphTopic string
	essayTopic     string
}

// NewHoverCache creates a hover cache. service may be nil, in which case
// every explanation is heuristic. events may be nil.
func NewHoverCache(service driven.AnalysisService, events driven.EventPublisher) *HoverCache {
	if events == nil {
		events = nopPublisher{}
	}
	return &HoverCache{
		service:  service,
		events:   events,
		cache:    make(map[string]string),
		inFlight: make(map[string]uint64),
	}
}

// Handle returns the explanation for text. It returns ("", false) when a
// request for the same text is already in flight, or when the response
// arrived after the cache was invalidated.
func (h *HoverCache) Handle(ctx context.Context, text string, strength float64) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	h.mu.Lock()
	if explanation, ok := h.cache[text]; ok {
		h.mu.Unlock()
		return explanation, true
	}
	if gen, ok := h.inFlight[text]; ok && gen == h.generation {
		h.mu.Unlock()
		return "", false
	}
	gen := h.generation
	h.inFlight[text] = gen
	req := domain.ExplainRequest{
		Sentence:           text,
		DocumentContext:    h.docContext,
		ConnectionStrength: domain.ClampStrength(strength),
		ParagraphTopic:     h.paragraphTopic,
		EssayTopic:         h.essayTopic,
	}
	h.mu.Unlock()

	defer h.release(text, gen)

	explanation, fallback := h.fetch(ctx, req)

	h.mu.Lock()
	if gen != h.generation {
		h.mu.Unlock()
		logger.Debug("hover: dropping stale explanation for %q", truncate(text, 40))
		return "", false
	}
	h.cache[text] = explanation
	h.mu.Unlock()

	h.events.Publish(domain.Event{
		Type: domain.EventHoverExplained,
		Payload: domain.HoverExplainedPayload{
			Text:        text,
			Explanation: explanation,
			Fallback:    fallback,
		},
	})
	return explanation, true
}

// fetch calls the analysis service, falling back to heuristics on any failure.
func (h *HoverCache) fetch(ctx context.Context, req domain.ExplainRequest) (string, bool) {
	if h.service == nil {
		return FallbackExplanation(req.ConnectionStrength), true
	}
	resp, err := h.service.ExplainConnection(ctx, req)
	if err != nil {
		logger.Warn("hover: explain connection failed: %v", err)
		return FallbackExplanation(req.ConnectionStrength), true
	}
	if strings.TrimSpace(resp.Explanation) == "" {
		return FallbackExplanation(req.ConnectionStrength), true
	}
	return resp.Explanation, false
}

// release clears the in-flight marker unless a newer request replaced it.
func (h *HoverCache) release(text string, gen uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.inFlight[text]; ok && cur == gen {
		delete(h.inFlight, text)
	}
}

// SetDocumentContext updates the document text sent with each request.
// A changed context invalidates the cache.
func (h *HoverCache) SetDocumentContext(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if text == h.docContext {
		return
	}
	h.docContext = text
	h.invalidateLocked()
}

// SetTopics updates the paragraph and essay topics. Changed topics
// invalidate the cache.
func (h *HoverCache) SetTopics(paragraphTopic, essayTopic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if paragraphTopic == h.paragraphTopic && essayTopic == h.essayTopic {
		return
	}
	h.paragraphTopic = paragraphTopic
	h.essayTopic = essayTopic
	h.invalidateLocked()
}

// Invalidate drops every cached explanation.
func (h *HoverCache) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.invalidateLocked()
}

func (h *HoverCache) invalidateLocked() {
	h.cache = make(map[string]string)
	h.generation++
}

// Len returns the number of cached explanations.
func (h *HoverCache) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.cache)
}

// nopPublisher discards events.
type nopPublisher struct{}

func (nopPublisher) Publish(domain.Event) {}
