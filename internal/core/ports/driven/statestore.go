package driven

import (
	"context"

	"github.com/custodia-labs/draftline/internal/core/domain"
)

// StateStore persists exported overlay snapshots keyed by document name.
type StateStore interface {
	// Save stores or replaces the snapshot for key.
	Save(ctx context.Context, key string, state domain.OverlayState) error

	// Load returns the snapshot for key, or domain.ErrNotFound.
	Load(ctx context.Context, key string) (domain.OverlayState, error)

	// Delete removes the snapshot for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all stored keys in ascending order.
	List(ctx context.Context) ([]string, error)
}
