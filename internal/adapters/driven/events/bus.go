// Package events provides an asynchronous publish/subscribe bus for overlay
// events. Publishing never blocks: when the buffer is full the event is dropped
// and the drop hooks fire.
package events

import (
	"context"
	"sync"

	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
)

// Ensure Bus implements the interface.
var _ driven.EventPublisher = (*Bus)(nil)

// DefaultBufferSize is the queue length used when New is given zero.
const DefaultBufferSize = 64

// Handler receives one event.
type Handler func(domain.Event)

type subscription struct {
	id        uint64
	eventType domain.EventType // empty matches every event
	fn        Handler
}

// Bus dispatches events to subscribers on a single goroutine, in publish order.
type Bus struct {
	ch    chan domain.Event
	hooks hooks

	mu     sync.RWMutex
	subs   []subscription
	nextID uint64

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

// New creates a bus with the given queue length.
func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	return &Bus{
		ch:      make(chan domain.Event, buffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Subscribe registers fn for one event type. The returned func unsubscribes.
func (b *Bus) Subscribe(eventType domain.EventType, fn Handler) func() {
	return b.subscribe(eventType, fn)
}

// SubscribeAll registers fn for every event type.
func (b *Bus) SubscribeAll(fn Handler) func() {
	return b.subscribe("", fn)
}

func (b *Bus) subscribe(eventType domain.EventType, fn Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, eventType: eventType, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish enqueues event without blocking. Events published after Stop are dropped.
func (b *Bus) Publish(event domain.Event) {
	select {
	case <-b.done:
		b.hooks.runOnDrop(event)
		return
	default:
	}

	select {
	case b.ch <- event:
		b.hooks.runOnPublish(event)
	default:
		b.hooks.runOnDrop(event)
	}
}

// Start launches the dispatch loop. It stops when ctx is done or Stop is called.
func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		go b.run(ctx)
	})
}

// Stop ends the dispatch loop after delivering events already queued,
// and waits for it to exit. Stop on a bus that was never started only
// closes it to new events.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() { close(b.done) })

	started := true
	b.startOnce.Do(func() { started = false })
	if started {
		<-b.stopped
	}
}

func (b *Bus) run(ctx context.Context) {
	defer close(b.stopped)
	for {
		select {
		case event := <-b.ch:
			b.dispatch(event)
		case <-ctx.Done():
			return
		case <-b.done:
			b.drain()
			return
		}
	}
}

func (b *Bus) drain() {
	for {
		select {
		case event := <-b.ch:
			b.dispatch(event)
		default:
			return
		}
	}
}

func (b *Bus) dispatch(event domain.Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.eventType != "" && s.eventType != event.Type {
			continue
		}
		b.deliver(s.fn, event)
	}
}

// deliver isolates subscriber panics so one bad handler cannot stop the loop.
func (b *Bus) deliver(fn Handler, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.hooks.runOnPanic(event, r)
		}
	}()
	fn(event)
}
