// Package api provides the HTTP API server and handlers for the arcade-songs catalog.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arcadesongs/arcadesongs-server/internal/logger"
	"github.com/arcadesongs/arcadesongs-server/internal/metrics"
	"github.com/arcadesongs/arcadesongs-server/internal/sse"
)

// Options configures the HTTP surface.
type Options struct {
	Title   string
	Version string
	// AllowedOrigins feeds CORS; empty allows any origin.
	AllowedOrigins []string
	// DrawRatePerMinute and DrawBurst limit draw creation per client IP; zero disables it.
	DrawRatePerMinute int
	DrawBurst         int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services    *Services
	sseManager  *sse.Manager
	sseHandler  *sse.Handler
	metrics     *metrics.Metrics
	drawLimiter *RateLimiter
	router      *chi.Mux
	api         huma.API
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// sseManager and m may be nil.
func NewServer(services *Services, sseManager *sse.Manager, m *metrics.Metrics, opts Options, log *slog.Logger) *Server {
	log = logger.OrDiscard(log)
	if opts.Title == "" {
		opts.Title = "arcade-songs API"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	s := &Server{
		services:   services,
		sseManager: sseManager,
		metrics:    m,
		router:     chi.NewRouter(),
		logger:     log,
	}
	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, log.With("component", "sse"))
	}
	if opts.DrawRatePerMinute > 0 {
		s.drawLimiter = NewRateLimiter(opts.DrawRatePerMinute, time.Minute, max(opts.DrawBurst, 1))
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig(opts.Title, opts.Version)
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources of the server.
func (s *Server) Close() {
	if s.drawLimiter != nil {
		s.drawLimiter.Stop()
	}
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger.With("component", "http")))
	if s.metrics != nil {
		s.router.Use(requestMetrics(s.metrics))
	}
	s.router.Use(middleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type", "Last-Event-ID"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerGameRoutes()
	s.registerSheetRoutes()
	s.registerDrawRoutes()
	s.registerComboRoutes()
	s.registerSelectionRoutes()
	s.registerEventRoutes()

	if s.metrics != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}
}
