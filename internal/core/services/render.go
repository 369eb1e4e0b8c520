package services

import (
	"sync"

	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
)

// RenderBridge turns overlay state changes into events for the render layer.
// It holds the last frame so late subscribers can paint without waiting
// for the next change.
type RenderBridge struct {
	events driven.EventPublisher

	mu    sync.RWMutex
	frame domain.RenderFrame
}

// NewRenderBridge creates a bridge publishing to events. events may be nil.
func NewRenderBridge(events driven.EventPublisher) *RenderBridge {
	if events == nil {
		events = nopPublisher{}
	}
	return &RenderBridge{
		events: events,
		frame:  domain.RenderFrame{Mode: domain.ModeComments},
	}
}

// ModeChanged records frame and publishes a mode change.
func (b *RenderBridge) ModeChanged(from, to domain.Mode, frame domain.RenderFrame) {
	b.store(frame)
	b.events.Publish(domain.Event{
		Type:    domain.EventModeChanged,
		Payload: domain.ModeChangedPayload{From: from, To: to, Frame: frame},
	})
}

// HighlightsChanged records frame and publishes a collection change.
func (b *RenderBridge) HighlightsChanged(category domain.Category, count int, frame domain.RenderFrame) {
	b.store(frame)
	b.events.Publish(domain.Event{
		Type:    domain.EventHighlightsChanged,
		Payload: domain.HighlightsChangedPayload{Category: category, Count: count, Frame: frame},
	})
}

// FocusChanged publishes the start or end of sentence tracking.
func (b *RenderBridge) FocusChanged(tracked *domain.TrackedSelection) {
	var payload domain.FocusChangedPayload
	if tracked != nil {
		t := *tracked
		payload = domain.FocusChangedPayload{Active: true, Tracked: &t}
	}
	b.events.Publish(domain.Event{Type: domain.EventFocusChanged, Payload: payload})
}

// Publish forwards an event that carries no frame.
func (b *RenderBridge) Publish(event domain.Event) {
	b.events.Publish(event)
}

// Frame returns the last published frame.
func (b *RenderBridge) Frame() domain.RenderFrame {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frame
}

func (b *RenderBridge) store(frame domain.RenderFrame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = frame
}
