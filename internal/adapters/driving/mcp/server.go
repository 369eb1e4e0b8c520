package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/draftline/internal/adapters/driven/document/memory"
	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/services"
	"github.com/custodia-labs/draftline/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Server is the MCP server for draftline.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "draftline",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, nil),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// session is one document opened for a tool call.
type session struct {
	key     string
	doc     *memory.Document
	overlay *services.OverlayManager
}

// open loads path and builds an overlay for it. When restore is set the
// stored snapshot, if any, is imported.
func (s *Server) open(ctx context.Context, path string, restore bool) (*session, domain.BatchResult, error) {
	if path == "" {
		return nil, domain.BatchResult{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, domain.BatchResult{}, fmt.Errorf("resolving path: %w", err)
	}
	doc, err := memory.Load(key)
	if err != nil {
		return nil, domain.BatchResult{}, fmt.Errorf("opening document: %w", err)
	}

	overlay := services.NewOverlayManager(doc, s.ports.Analysis, s.ports.Events)
	overlay.SetReanchorThreshold(s.ports.threshold())
	sess := &session{key: key, doc: doc, overlay: overlay}
	if !restore {
		return sess, domain.BatchResult{}, nil
	}

	state, err := s.ports.States.Load(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return sess, domain.BatchResult{}, nil
	}
	if err != nil {
		return nil, domain.BatchResult{}, fmt.Errorf("loading state: %w", err)
	}
	res, err := overlay.ImportState(state)
	if err != nil {
		return nil, domain.BatchResult{}, fmt.Errorf("importing state: %w", err)
	}
	if len(res.Skipped) > 0 {
		logger.Debug("mcp: %d stored annotations for %s did not anchor", len(res.Skipped), key)
	}
	return sess, res, nil
}
