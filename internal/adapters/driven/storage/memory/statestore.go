package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
)

// Ensure StateStore implements the interface.
var _ driven.StateStore = (*StateStore)(nil)

// StateStore keeps overlay snapshots in memory. Snapshots are stored encoded
// so callers never share slices with the store.
type StateStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewStateStore creates a new in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{
		states: make(map[string][]byte),
	}
}

// Save stores or replaces the snapshot for key.
func (s *StateStore) Save(_ context.Context, key string, state domain.OverlayState) error {
	if key == "" {
		return fmt.Errorf("%w: empty state key", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = data
	return nil
}

// Load returns the snapshot for key.
func (s *StateStore) Load(_ context.Context, key string) (domain.OverlayState, error) {
	s.mu.RLock()
	data, ok := s.states[key]
	s.mu.RUnlock()
	if !ok {
		return domain.OverlayState{}, domain.ErrNotFound
	}

	var state domain.OverlayState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.OverlayState{}, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

// Delete removes the snapshot for key.
func (s *StateStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	return nil
}

// List returns all stored keys in ascending order.
func (s *StateStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.states))
	for k := range s.states {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
