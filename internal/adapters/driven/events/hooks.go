package events

import (
	"sync"

	"github.com/custodia-labs/draftline/internal/core/domain"
)

// hooks holds the lifecycle hook state for the Bus.
type hooks struct {
	mu        sync.RWMutex
	onPublish []func(domain.Event)
	onDrop    []func(domain.Event)
	onPanic   []func(domain.Event, any)
}

// OnPublish registers a hook that fires after an event is successfully enqueued.
func (b *Bus) OnPublish(fn func(domain.Event)) {
	b.hooks.mu.Lock()
	b.hooks.onPublish = append(b.hooks.onPublish, fn)
	b.hooks.mu.Unlock()
}

// OnDrop registers a hook that fires when an event is dropped.
func (b *Bus) OnDrop(fn func(domain.Event)) {
	b.hooks.mu.Lock()
	b.hooks.onDrop = append(b.hooks.onDrop, fn)
	b.hooks.mu.Unlock()
}

// OnPanic registers a hook that fires when a subscriber panics.
func (b *Bus) OnPanic(fn func(domain.Event, any)) {
	b.hooks.mu.Lock()
	b.hooks.onPanic = append(b.hooks.onPanic, fn)
	b.hooks.mu.Unlock()
}

func (h *hooks) runOnPublish(event domain.Event) {
	for _, fn := range h.snapshot(h.onPublish) {
		fn(event)
	}
}

func (h *hooks) runOnDrop(event domain.Event) {
	for _, fn := range h.snapshot(h.onDrop) {
		fn(event)
	}
}

func (h *hooks) runOnPanic(event domain.Event, recovered any) {
	h.mu.RLock()
	fns := make([]func(domain.Event, any), len(h.onPanic))
	copy(fns, h.onPanic)
	h.mu.RUnlock()

	for _, fn := range fns {
		func() {
			defer func() { recover() }() //nolint:errcheck
			fn(event, recovered)
		}()
	}
}

func (h *hooks) snapshot(src []func(domain.Event)) []func(domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]func(domain.Event), len(src))
	copy(out, src)
	return out
}
