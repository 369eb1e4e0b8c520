package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPCmd_HasServe(t *testing.T) {
	names := make([]string, 0)
	for _, c := range mcpCmd.Commands() {
		names = append(names, c.Name())
	}

	assert.Equal(t, []string{"serve"}, names)
	assert.NotNil(t, mcpServeCmd.Flags().Lookup("port"))
}

func TestMCPServeCmd_NoStore(t *testing.T) {
	setupTestServices(t, nil)
	SetServices(Services{})

	_, _, err := execute(t, "mcp", "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "state store not configured")
}
