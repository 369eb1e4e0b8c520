package events

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/custodia-labs/draftline/internal/core/domain"
)

// RegisterDebugLogger registers bus hooks that log all event activity.
// Published events log at debug level, drops at warn and subscriber panics at error.
func RegisterDebugLogger(bus *Bus, logger zerolog.Logger) {
	bus.OnPublish(func(event domain.Event) {
		logger.Debug().Str("event", string(event.Type)).Msg("event fired")
	})

	bus.OnDrop(func(event domain.Event) {
		logger.Warn().Str("event", string(event.Type)).Msg("event dropped")
	})

	bus.OnPanic(func(event domain.Event, recovered any) {
		logger.Error().
			Str("event", string(event.Type)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}
