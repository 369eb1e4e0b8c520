package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/draftline/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for draftline resources.
	uriScheme = "draftline://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "states",
		Name:        "states",
		Description: "Documents with a stored highlight overlay",
		MIMEType:    "application/json",
	}, s.handleStatesResource)

	// Keys are absolute paths, so they travel path-escaped.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "states/{key}",
		Name:        "document-state",
		Description: "Stored overlay snapshot for one document",
		MIMEType:    "application/json",
	}, s.handleStateResource)
}

// StateInfo summarises one stored snapshot.
type StateInfo struct {
	Key         string `json:"key"`
	URI         string `json:"uri"`
	Mode        string `json:"mode"`
	Annotations int    `json:"annotations"`
}

func (s *Server) handleStatesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	keys, err := s.ports.States.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing states: %w", err)
	}

	infos := make([]StateInfo, 0, len(keys))
	for _, key := range keys {
		state, err := s.ports.States.Load(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading state %s: %w", key, err)
		}
		infos = append(infos, StateInfo{
			Key:         key,
			URI:         stateURI(key),
			Mode:        string(state.Mode),
			Annotations: state.Count(),
		})
	}

	return jsonResult(req.Params.URI, infos)
}

func (s *Server) handleStateResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	key := extractStateKey(req.Params.URI)
	if key == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	state, err := s.ports.States.Load(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}

	return jsonResult(req.Params.URI, state)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// stateURI returns the resource URI for a stored key.
func stateURI(key string) string {
	return uriScheme + "states/" + url.PathEscape(key)
}

// extractStateKey extracts the key from a URI like draftline://states/{key}.
func extractStateKey(uri string) string {
	const prefix = uriScheme + "states/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	key, err := url.PathUnescape(strings.TrimPrefix(uri, prefix))
	if err != nil {
		return ""
	}
	return key
}
