package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/schedsim/internal/config"
	"github.com/me/schedsim/internal/metrics"
	"github.com/me/schedsim/internal/registry"
	"github.com/me/schedsim/internal/telemetry"
	"github.com/me/schedsim/internal/ui"
)

// Server is the SchedSim REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	version   string
	registry  *registry.Registry
	metrics   *metrics.Metrics    // optional; nil disables /metrics
	tracing   *telemetry.Provider // never nil after New
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithMetrics enables Prometheus collection and the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithTelemetry traces requests and simulations with p.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(s *Server) {
		if p != nil {
			s.tracing = p
		}
	}
}

// WithVersion sets the version reported by discovery and health.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, reg *registry.Registry, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		version:   "dev",
		registry:  reg,
		tracing:   telemetry.Disabled(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(s.tracing.Middleware)
	r.Use(s.metrics.Middleware)
	r.Use(loggingMiddleware(s.logger))

	// Set before mounting so subrouters inherit it.
	r.NotFound(s.handleNotFound)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// Routes of the original web client; plain JSON bodies, no envelope.
	r.Post("/add_process", s.handleLegacyAddProcess)
	r.Post("/reset", s.handleLegacyReset)
	r.Post("/run", s.handleLegacyRun)

	// API routes (JSON envelope)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)
		r.Get("/algorithms", s.handleListAlgorithms)

		r.Route("/processes", func(r chi.Router) {
			r.Get("/", s.handleListProcesses)
			r.Post("/", s.handleAddProcess)
			r.Delete("/", s.handleResetProcesses)
		})

		r.Route("/run", func(r chi.Router) {
			r.Post("/", s.handleRun)
			r.Get("/stream", s.handleRunStream)
		})
	})

	// Browser dashboard
	dashboard := ui.New(s.registry, s.simulate, s.logger, ui.WithRegistryHook(s.metrics.SetRegistrySize))
	dashboard.RegisterRoutes(r)
}
