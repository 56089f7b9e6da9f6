package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"autoblog/internal/affiliate"
	"autoblog/internal/analytics"
	"autoblog/internal/automation"
	"autoblog/internal/config"
	"autoblog/internal/logger"
)

// Dependencies are the collaborators behind the API routes.
// Optional handlers respond 503 when their collaborator is nil.
type Dependencies struct {
	Service   *automation.Service
	SEO       automation.SEOAnalyzer
	Images    automation.ImageProvider
	Publisher automation.Publisher
	Sharer    automation.SocialSharer
	Topics    automation.TopicSource
	Catalog   affiliate.Catalog
	Monetizer *automation.ContentMonetizer
	Analytics *analytics.Reporter

	// Registry serves /metrics and receives the HTTP request counter.
	// Nil uses a fresh registry.
	Registry *prometheus.Registry
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	deps       Dependencies
	config     config.Server
	log        *slog.Logger
	requests   *prometheus.CounterVec
}

// New creates a new HTTP server instance
func New(cfg config.Server, deps Dependencies) *Server {
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	s := &Server{
		router: chi.NewRouter(),
		deps:   deps,
		config: cfg,
		log:    logger.With("server"),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoblog_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
	}
	if err := deps.Registry.Register(s.requests); err != nil {
		s.log.Warn("HTTP request counter not registered", "error", err)
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)
	s.router.Use(s.countRequests)

	if s.config.CORS.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           300, // Maximum value not ignored by any major browsers
		}))
	}
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{}))

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/trending-topics", s.handleTrendingTopics)
		r.Get("/affiliate-products", s.handleAffiliateProducts)
		r.Get("/automation/status", s.handleAutomationStatus)
		r.Get("/config", s.handleGetConfig)
		r.Get("/analytics", s.handleAnalytics)

		// Content tools call paid upstream APIs, so they sit behind the key too
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdminAPI)

			// Generation can take minutes on slow models
			r.With(middleware.Timeout(5*time.Minute)).Post("/generate-blog", s.handleGenerateBlog)
			r.Post("/analyze-seo", s.handleAnalyzeSEO)
			r.With(middleware.Timeout(2*time.Minute)).Post("/generate-image", s.handleGenerateImage)
			r.Post("/publish", s.handlePublish)
			r.Post("/add-affiliate-ads", s.handleAddAffiliateAds)
			r.Post("/estimate-revenue", s.handleEstimateRevenue)

			r.Route("/automation", func(r chi.Router) {
				r.Post("/start", s.handleAutomationStart)
				r.Post("/stop", s.handleAutomationStop)
				r.Post("/run-now", s.handleRunNow)
			})
			r.Post("/config", s.handleUpdateConfig)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		"addr", s.httpServer.Addr,
		"read_timeout", s.config.ReadTimeout,
		"write_timeout", s.config.WriteTimeout,
		"admin_auth", s.config.AdminAPIKey != "",
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server gracefully...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
