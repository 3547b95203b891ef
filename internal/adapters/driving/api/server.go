package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// ServiceName is reported by the status endpoint.
const ServiceName = "docqa"

const (
	// DefaultAddr is the listen address when none is configured.
	DefaultAddr = ":8000"

	// DefaultMaxUploadBytes bounds the size of one upload request.
	DefaultMaxUploadBytes = 256 << 20

	// maxAskBytes bounds the JSON body of an ask request.
	maxAskBytes = 1 << 20

	// multipartMemory is the part of an upload kept in memory before
	// spilling to temporary files.
	multipartMemory = 32 << 20

	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

var (
	// ErrMissingIngestService is returned when the ingest port is nil.
	ErrMissingIngestService = errors.New("ingest service is required")

	// ErrMissingAnswerService is returned when the answer port is nil.
	ErrMissingAnswerService = errors.New("answer service is required")

	// ErrMissingSessionService is returned when the session port is nil.
	ErrMissingSessionService = errors.New("session service is required")
)

// Ports contains the driving ports the HTTP API calls.
type Ports struct {
	Ingest   driving.IngestService
	Answer   driving.AnswerService
	Sessions driving.SessionService
}

// Validate checks that every port is set.
func (p *Ports) Validate() error {
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Sessions == nil {
		return ErrMissingSessionService
	}
	return nil
}

// Config holds the flags reported by the status endpoint and server limits.
type Config struct {
	Addr           string
	EnableRAG      bool
	EnableNER      bool
	MaxUploadBytes int64
}

// Server serves the HTTP API.
type Server struct {
	ports  *Ports
	config Config
	mux    *http.ServeMux
}

// NewServer creates a server. Zero config fields take their defaults.
func NewServer(ports *Ports, config Config) (*Server, error) {
	if ports == nil {
		return nil, ErrMissingIngestService
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}

	s := &Server{ports: ports, config: config, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleStatus)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("POST /ask", s.handleAsk)
	s.mux.HandleFunc("GET /sessions/{id}", s.handleSession)
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.config.Addr
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

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

	logger.Info("HTTP API listening on %s", s.config.Addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
