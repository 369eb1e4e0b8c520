package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/draftline/internal/core/domain"
)

func TestExtractStateKey(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "escaped path",
			uri:      stateURI("/home/me/essay.md"),
			expected: "/home/me/essay.md",
		},
		{
			name:     "plain key",
			uri:      "draftline://states/notes",
			expected: "notes",
		},
		{
			name:     "invalid prefix",
			uri:      "file://states/notes",
			expected: "",
		},
		{
			name:     "bad escape",
			uri:      "draftline://states/%zz",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractStateKey(tt.uri))
		})
	}
}

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleStatesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		server, _ := newTestServer(t, nil)

		result, err := server.handleStatesResource(ctx, makeReadResourceRequest("draftline://states"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("lists stored states", func(t *testing.T) {
		server, states := newTestServer(t, nil)
		require.NoError(t, states.Save(ctx, "/docs/essay.md", annotations()))

		result, err := server.handleStatesResource(ctx, makeReadResourceRequest("draftline://states"))

		require.NoError(t, err)
		var infos []StateInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &infos))
		require.Len(t, infos, 1)
		assert.Equal(t, "/docs/essay.md", infos[0].Key)
		assert.Equal(t, "comments", infos[0].Mode)
		assert.Equal(t, 2, infos[0].Annotations)
		assert.Equal(t, stateURI("/docs/essay.md"), infos[0].URI)
	})
}

func TestServer_handleStateResource(t *testing.T) {
	ctx := context.Background()
	server, states := newTestServer(t, nil)
	require.NoError(t, states.Save(ctx, "/docs/essay.md", annotations()))

	t.Run("returns snapshot", func(t *testing.T) {
		uri := stateURI("/docs/essay.md")
		result, err := server.handleStateResource(ctx, makeReadResourceRequest(uri))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, uri, result.Contents[0].URI)

		var state domain.OverlayState
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &state))
		assert.Equal(t, annotations().Comments, state.Comments)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := server.handleStateResource(ctx, makeReadResourceRequest(stateURI("/docs/other.md")))
		require.Error(t, err)
	})

	t.Run("malformed URI", func(t *testing.T) {
		_, err := server.handleStateResource(ctx, makeReadResourceRequest("draftline://elsewhere"))
		require.Error(t, err)
	})
}
