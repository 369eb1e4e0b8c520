package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/draftline/internal/core/ports/driven"
)

func TestConfigStore_InterfaceCompliance(t *testing.T) {
	var _ driven.ConfigStore = NewConfigStore()
}

func TestConfigStore_Getters(t *testing.T) {
	tests := []struct {
		name       string
		value      any
		wantString string
		wantInt    int
		wantFloat  float64
		wantBool   bool
	}{
		{"string", "ollama", "ollama", 0, 0, false},
		{"int", 42, "", 42, 42, false},
		{"int64", int64(7), "", 7, 7, false},
		{"float64", 0.75, "", 0, 0.75, false},
		{"bool", true, "", 0, 0, true},
		{"nil", nil, "", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewConfigStore()
			require.NoError(t, store.Set("k", tt.value))

			assert.Equal(t, tt.wantString, store.GetString("k"))
			assert.Equal(t, tt.wantInt, store.GetInt("k"))
			assert.InDelta(t, tt.wantFloat, store.GetFloat("k"), 1e-9)
			assert.Equal(t, tt.wantBool, store.GetBool("k"))
		})
	}
}

func TestConfigStore_Missing(t *testing.T) {
	store := NewConfigStore()

	val, ok := store.Get("nope")
	assert.False(t, ok)
	assert.Nil(t, val)
	assert.Zero(t, store.GetFloat("nope"))
	assert.Empty(t, store.Keys())
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("reanchor.threshold", 0.5))
	require.NoError(t, store.Set("llm.provider", "openai"))
	require.NoError(t, store.Set("llm.provider", "anthropic"))

	assert.Equal(t, []string{"llm.provider", "reanchor.threshold"}, store.Keys())
	assert.Equal(t, "anthropic", store.GetString("llm.provider"))
}

func TestConfigStore_NoOps(t *testing.T) {
	store := NewConfigStore()

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("shared", n)
			_ = store.GetInt("shared")
			_ = store.GetFloat("shared")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("shared")
	assert.True(t, ok)
}
