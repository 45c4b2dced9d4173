// Package web provides the HTTP server and JSON handlers for the timesheet API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/timesheet/internal/config"
	"github.com/JonMunkholm/timesheet/internal/core"
	"github.com/JonMunkholm/timesheet/internal/logging"
	"github.com/JonMunkholm/timesheet/internal/web/middleware"
)

// retryAfterSeconds is sent with 503 responses when every import slot is busy.
const retryAfterSeconds = 5

// Pinger reports whether the database is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the timesheet API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	db      Pinger
	logger  *slog.Logger
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance. db may be nil, in which case
// the health routes only report that the process is up.
func NewServer(service *core.Service, cfg *config.Config, db Pinger, logger *slog.Logger) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		db:      db,
		logger:  logging.OrDiscard(logger),
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies, s.logger))
	if len(s.cfg.Security.CORSOrigins) > 0 {
		s.router.Use(corsHandler(s.cfg.Security.CORSOrigins))
	}
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimw.Recoverer)
	s.router.Use(middleware.Metrics)
	s.router.Use(chimw.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

// corsHandler answers preflight requests before auth runs. Credentials are
// never allowed, so "*" is a valid origin.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Total-Count", "X-Correlation-ID", "X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           600,
	})
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/healthz", s.handleHealth)
	if s.cfg.Metrics.Enabled {
		s.router.Handle(s.cfg.Metrics.Path, promhttp.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security, s.logger))
		if s.cfg.Rate.Enabled {
			limiter := middleware.NewRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst)
			r.Use(middleware.RateLimit(limiter, "api", s.logger))
		}

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", s.handleListCustomers)
			r.Post("/", s.handleCreateCustomer)
			r.Get("/{name}", s.handleGetCustomer)
			r.Put("/{name}", s.handleUpdateCustomer)
			r.Delete("/{name}", s.handleDeleteCustomer)
		})

		r.Route("/project-managers", func(r chi.Router) {
			r.Get("/", s.handleListProjectManagers)
			r.Post("/", s.handleCreateProjectManager)
			r.Get("/{name}", s.handleGetProjectManager)
			r.Put("/{name}", s.handleUpdateProjectManager)
			r.Delete("/{name}", s.handleDeleteProjectManager)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleCreateProject)
			r.Get("/{projectID}", s.handleGetProject)
			r.Put("/{projectID}", s.handleUpdateProject)
			r.Delete("/{projectID}", s.handleDeleteProject)
		})

		r.Route("/time-entries", func(r chi.Router) {
			r.Get("/", s.handleListEntries)
			r.Post("/", s.handleCreateEntry)

			// Imports share a tighter per-IP budget.
			r.Group(func(r chi.Router) {
				if s.cfg.Rate.Enabled {
					limiter := middleware.NewRateLimiter(s.cfg.Rate.UploadLimit, 1)
					r.Use(middleware.RateLimit(limiter, "import", s.logger))
				}
				r.Post("/bulk", s.handleBulkImport)
				r.Post("/upload", s.handleUpload)
				r.Post("/validate", s.handleValidate)
			})

			r.Get("/{id}", s.handleGetEntry)
			r.Put("/{id}", s.handleUpdateEntry)
			r.Delete("/{id}", s.handleDeleteEntry)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/weekly", s.handleWeeklyReport)
			r.Get("/monthly", s.handleMonthlyReport)
		})
	})
}

// Start begins listening for HTTP requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// JSON only; nothing may be loaded from a response
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}

// handleHealth reports process and database health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":         "ok",
		"imports_active": s.service.Limiter().ActiveCount(),
	}
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			logging.FromContext(r.Context(), s.logger).Error("health check failed", "error", err)
			status["status"] = "unavailable"
			status["database"] = "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}
	writeJSON(w, http.StatusOK, status)
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are dropped since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
