package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// shutdownTimeout bounds in-flight requests when the context is cancelled.
const shutdownTimeout = 5 * time.Second

// instructions tell clients how the tools fit together.
const instructions = `docqa answers questions about documents held in in-memory sessions.
Call ingest_text (or ingest_file when offered) first; the result carries a
session_id.
Pass that session_id to ask, and to further ingest calls to add documents to
the same session. Answers include evidence spans into the context, the source
filenames and named entities. Read docqa://sessions to list sessions.`

// DefaultMaxFileBytes bounds the size of a file read by ingest_file.
const DefaultMaxFileBytes = 256 << 20

// Server is the MCP server for docqa.
type Server struct {
	ports  *Ports
	server *mcp.Server

	fileRoot     string
	maxFileBytes int64
	fileIngest   bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithFileRoot confines ingest_file to paths under dir.
func WithFileRoot(dir string) ServerOption {
	return func(s *Server) {
		s.fileRoot = dir
	}
}

// WithMaxFileBytes sets the largest file ingest_file will read.
func WithMaxFileBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxFileBytes = n
		}
	}
}

// WithoutFileIngest leaves the ingest_file tool unregistered.
func WithoutFileIngest() ServerOption {
	return func(s *Server) {
		s.fileIngest = false
	}
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports, opts ...ServerOption) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "docqa",
		Version: Version,
	}

	s := &Server{
		ports:        ports,
		server:       mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions}),
		maxFileBytes: DefaultMaxFileBytes,
		fileIngest:   true,
	}
	for _, opt := range opts {
		opt(s)
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

	// Graceful shutdown when context is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("MCP server listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
