package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/draftline/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/draftline/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("nil state store returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingStateStore)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{States: memory.NewStateStore()})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Threshold(t *testing.T) {
	ptr := func(v float64) *float64 { return &v }

	assert.Equal(t, domain.DefaultReanchorThreshold, (&Ports{}).threshold())
	assert.Equal(t, 0.3, (&Ports{Threshold: ptr(0.3)}).threshold())
	assert.Equal(t, 0.0, (&Ports{Threshold: ptr(0)}).threshold())
	assert.Equal(t, 1.0, (&Ports{Threshold: ptr(1)}).threshold())
	assert.Equal(t, domain.DefaultReanchorThreshold, (&Ports{Threshold: ptr(2)}).threshold())
}

func TestServer_open(t *testing.T) {
	ctx := context.Background()

	t.Run("empty path", func(t *testing.T) {
		server, _ := newTestServer(t, nil)
		_, _, err := server.open(ctx, "", false)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("missing file", func(t *testing.T) {
		server, _ := newTestServer(t, nil)
		_, _, err := server.open(ctx, "/nonexistent/essay.md", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opening document")
	})

	t.Run("restores stored state", func(t *testing.T) {
		server, states := newTestServer(t, nil)
		path := writeDoc(t, "Intro. "+catText)
		sess, _, err := server.open(ctx, path, false)
		require.NoError(t, err)
		require.NoError(t, states.Save(ctx, sess.key, annotations()))

		sess, res, err := server.open(ctx, path, true)

		require.NoError(t, err)
		assert.Equal(t, 2, res.Applied)
		r, ok := sess.doc.MarkRange(domain.CategoryComment.MarkID("c1"))
		require.True(t, ok)
		assert.Equal(t, 20, r.From)
	})
}
