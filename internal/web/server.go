// Package web provides the HTTP server: the admin import page and the JSON API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/churchbase/internal/config"
	"github.com/JonMunkholm/churchbase/internal/core"
	mw "github.com/JonMunkholm/churchbase/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Server is the churchbase HTTP server.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	gatherer prometheus.Gatherer

	// nil when rate limiting is disabled
	limiter       *mw.RateLimiter
	importLimiter *mw.RateLimiter
}

// NewServer wires the router. gatherer backs /metrics; nil means the
// default Prometheus registry.
func NewServer(service *core.Service, cfg *config.Config, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		service:  service,
		cfg:      cfg,
		router:   chi.NewRouter(),
		gatherer: gatherer,
	}
	if cfg.Rate.Enabled {
		s.limiter = mw.NewRateLimiter(cfg.Rate.RequestsPerMinute)
		s.importLimiter = mw.NewRateLimiter(cfg.Rate.ImportLimit)
	}
	s.setupMiddleware()
	s.setupRoutes()

	sc := cfg.Server
	s.server = &http.Server{
		Addr:         sc.Addr(),
		Handler:      s.router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)

	if s.limiter != nil {
		s.router.Use(s.limiter.Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/members", http.StatusFound)
	})

	// Admin pages
	s.router.Route("/admin/members", func(r chi.Router) {
		r.Get("/", s.handleMembersPage)
		r.Get("/sample.csv", s.handleSampleCSV)
		r.Post("/actions/{action}", s.handleMemberAction)
		r.With(s.importRateLimit).Post("/import", s.handleImportMembers)
	})

	// JSON API
	s.router.Route("/api", func(r chi.Router) {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: s.cfg.Security.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", mw.APIKeyHeader},
			MaxAge:         300,
		}).Handler)
		r.Use(mw.APIKeyAuth(s.cfg.Security))

		r.Route("/members", func(r chi.Router) {
			r.Get("/", s.handleListMembers)
			r.Post("/", s.handleCreateMember)
			r.Get("/export.csv", s.handleExportMembersCSV)
			r.Get("/export.xlsx", s.handleExportMembersXLSX)
			r.With(s.importRateLimit).Post("/import", s.handleAPIImportMembers)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", s.handleListGroups)
			r.Post("/", s.handleCreateGroup)
			r.Post("/{groupID}/members", s.handleAddGroupMembers)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleListEvents)
			r.Post("/", s.handleCreateEvent)
			r.Post("/{eventID}/attendance", s.handleRecordAttendance)
		})

		r.Route("/communications", func(r chi.Router) {
			r.Get("/", s.handleListCommunications)
			r.Post("/", s.handleLogCommunication)
			r.Get("/export.csv", s.handleExportCommunicationsCSV)
		})

		r.Get("/reports/dashboard", s.handleDashboard)
		r.Get("/reports/attendance", s.handleAttendanceReport)
		r.Get("/imports/status", s.handleImportStatus)
	})
}

// importRateLimit applies the stricter per-IP limit for import uploads.
func (s *Server) importRateLimit(next http.Handler) http.Handler {
	if s.importLimiter == nil {
		return next
	}
	return s.importLimiter.Middleware(next)
}

// Start listens on the configured address until Shutdown is called. It
// returns nil at once if Shutdown already ran.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server. It is safe to call before Start.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// RunLimiterCleanup evicts idle rate limit buckets until ctx is done.
func (s *Server) RunLimiterCleanup(ctx context.Context) {
	if s.limiter == nil {
		return
	}
	go s.importLimiter.Cleanup(ctx)
	s.limiter.Cleanup(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with a 200 status.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
