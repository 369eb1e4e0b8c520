package driven

import "github.com/custodia-labs/draftline/internal/core/domain"

// EventPublisher receives overlay events. It replaces ambient hover hooks
// and attribute polling: the render layer subscribes instead.
// Publish must not block on subscribers.
type EventPublisher interface {
	Publish(event domain.Event)
}
