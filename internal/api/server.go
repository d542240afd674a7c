// Package api exposes the learning coach over a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/studyowl/studyowl/internal/ingest"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger    *slog.Logger
	Ingest    *ingest.Service // Required
	Store     CoachStore      // Required
	Generator Generator       // Required
	Pinger    Pinger          // Optional: nil disables the database check in /ready
}

// Server is the JSON API HTTP server.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer creates an API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Ingest == nil {
		return nil, errors.New("ingest service is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("generator is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &coachHandler{
		ingest:    cfg.Ingest,
		store:     cfg.Store,
		generator: cfg.Generator,
		logger:    logger,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/sources", h.addSource)
	mux.HandleFunc("GET /api/v1/sources", h.listSources)
	mux.HandleFunc("POST /api/v1/fetch", h.fetchSources)
	mux.HandleFunc("POST /api/v1/documents", h.uploadDocument)
	mux.HandleFunc("GET /api/v1/content", h.listContent)
	mux.HandleFunc("POST /api/v1/progress", h.updateProgress)
	mux.HandleFunc("GET /api/v1/progress/latest", h.latestProgress)
	mux.HandleFunc("POST /api/v1/digests", h.generateDigest)
	mux.HandleFunc("GET /api/v1/digests", h.listDigests)

	// Middleware stack (outermost first): tracing, recovery, logging.
	var handler http.Handler = mux
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)
	handler = otelhttp.NewHandler(handler, "studyowl.api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))

	// Health probes stay outside the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(logger))
	topMux.Handle("GET /ready", readiness(cfg.Pinger, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux, logger: logger}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves HTTP on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
