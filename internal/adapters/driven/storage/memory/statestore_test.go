package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/draftline/internal/core/domain"
)

func sampleState() domain.OverlayState {
	return domain.OverlayState{
		SchemaVersion: domain.OverlayStateVersion,
		Mode:          domain.ModeFlow,
		Flows: []domain.FlowAnnotation{{
			ID:                 "f1",
			ConnectionStrength: 0.8,
			ConnectedIDs:       []string{"f2"},
			Range:              domain.NewTextRange(0, 12, 1),
			CachedText:         "The cat sat.",
		}},
	}
}

func TestStateStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore()

	require.NoError(t, store.Save(ctx, "essay.txt", sampleState()))

	got, err := store.Load(ctx, "essay.txt")
	require.NoError(t, err)
	assert.Equal(t, sampleState(), got)
}

func TestStateStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore()
	state := sampleState()
	require.NoError(t, store.Save(ctx, "k", state))

	state.Flows[0].ConnectedIDs[0] = "mutated"
	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "f2", got.Flows[0].ConnectedIDs[0])

	got.Flows[0].CachedText = "changed"
	again, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "The cat sat.", again.Flows[0].CachedText)
}

func TestStateStore_NotFoundAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting a missing key is fine.
	assert.NoError(t, store.Delete(ctx, "missing"))

	require.NoError(t, store.Save(ctx, "k", sampleState()))
	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Load(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStateStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore()

	for _, k := range []string{"b.md", "a.md", "c.md"} {
		require.NoError(t, store.Save(ctx, k, sampleState()))
	}

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.md", "c.md"}, keys)
}

func TestStateStore_EmptyKey(t *testing.T) {
	err := NewStateStore().Save(context.Background(), "", sampleState())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
