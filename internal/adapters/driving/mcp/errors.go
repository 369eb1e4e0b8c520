// Package mcp provides an MCP (Model Context Protocol) server adapter for draftline.
// It lets AI assistants anchor feedback to a document and read the stored
// highlight overlays.
package mcp

import "errors"

// ErrMissingStateStore is returned when the state store is not provided.
var ErrMissingStateStore = errors.New("mcp: state store is required")
