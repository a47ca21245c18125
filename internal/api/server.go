package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/drafthaus/drawbridge/internal/auth"
	"github.com/drafthaus/drawbridge/internal/cad"
	"github.com/drafthaus/drawbridge/internal/events"
	"github.com/drafthaus/drawbridge/internal/history"
	"github.com/drafthaus/drawbridge/internal/log"
	"github.com/drafthaus/drawbridge/internal/tools"
)

// BackendProvider hands out the active drawing backend. The daemon owns
// construction; POST /system/init goes through Rebuild, which tears the old
// backend down and reports the init outcome of the replacement.
type BackendProvider interface {
	Current() cad.Backend
	Rebuild(ctx context.Context) (cad.Backend, cad.Result)
}

// Journal is the slice of the call history store the server uses.
type Journal interface {
	Append(ctx context.Context, e history.Entry) (string, error)
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Config holds API server configuration
type Config struct {
	Listen string
	// APIKey is the legacy single bearer token (admin/full access).
	APIKey string
	// Tokens is an optional list of scoped bearer tokens.
	Tokens []auth.TokenConfig
}

// Server represents the HTTP API server
type Server struct {
	config    Config
	provider  BackendProvider
	registry  *tools.Registry
	journal   Journal
	events    *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new API server instance. journal may be nil when history is
// disabled. hub and logger may be nil, in which case the server owns a
// private hub and uses the component logger.
func New(config Config, provider BackendProvider, registry *tools.Registry, journal Journal, hub *events.Hub, logger *slog.Logger) *Server {
	if hub == nil {
		hub = events.NewHub(256)
	}
	if logger == nil {
		logger = log.WithComponent("api")
	}
	return &Server{
		config:    config,
		provider:  provider,
		registry:  registry,
		journal:   journal,
		events:    hub,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start starts the HTTP server (blocking)
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:        s.config.Listen,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// No write timeout: /events streams stay open until the client
		// disconnects.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Routes
	// Unauthenticated ops endpoints.
	r.Get("/healthz", s.handleHealthz)
	r.Get("/openapi.json", s.handleOpenAPI)

	// Protected API.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		// Tool calls need draw:ro or draw:rw depending on the operation;
		// the handler resolves the kind and checks.
		r.Post("/tool/{tool}/{operation}", s.handleToolCall)
		r.With(s.requireScopes("draw:ro", "draw:rw", "*")).Get("/tools", s.handleTools)
		r.With(s.requireScopes("draw:ro", "draw:rw", "*")).Get("/status", s.handleStatus)
		r.With(s.requireScopes("draw:rw", "*")).Post("/system/init", s.handleSystemInit)
		r.With(s.requireScopes("history:ro", "*")).Get("/history", s.handleHistory)
		r.With(s.requireScopes("events:ro", "*")).Get("/events", s.handleEvents)
	})

	return r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
