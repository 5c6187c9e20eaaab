// Package web provides the HTTP server and handlers for the admin UI.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/scentadmin/internal/api"
	"github.com/JonMunkholm/scentadmin/internal/config"
	"github.com/JonMunkholm/scentadmin/internal/core"
	"github.com/JonMunkholm/scentadmin/internal/metrics"
	mw "github.com/JonMunkholm/scentadmin/internal/web/middleware"
)

// Server is the HTTP server for the admin back-office.
type Server struct {
	cfg     *config.Config
	client  *api.Client
	service *core.Service
	session mw.Session
	router  *chi.Mux
	server  *http.Server

	limiter         *mw.RateLimiter // all requests
	transferLimiter *mw.RateLimiter // export and import triggers
	stop            chan struct{}
}

// NewServer creates a new Server instance. client must authenticate with
// api.ContextAuth so each request uses the caller's session token.
func NewServer(cfg *config.Config, client *api.Client, service *core.Service) *Server {
	s := &Server{
		cfg:     cfg,
		client:  client,
		service: service,
		session: mw.Session{
			Name:   cfg.Security.SessionCookie,
			Secure: cfg.Security.SecureCookies,
			MaxAge: cfg.Security.SessionMaxAge,
		},
		router: chi.NewRouter(),
		stop:   make(chan struct{}),
	}
	if cfg.Rate.Enabled {
		s.limiter = mw.NewRateLimiter(cfg.Rate.RequestsPerMinute)
		s.transferLimiter = mw.NewRateLimiter(cfg.Rate.TransferLimit)
		go s.sweepLimiters()
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)

	if s.limiter != nil {
		s.router.Use(s.limiter.Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.cfg.Server.MetricsEnabled {
		s.router.Handle("/metrics", metrics.Handler())
	}

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
		r.Use(middleware.Compress(5))

		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(mw.RequireSession(s.session))

		// Server-sent events stay open for the whole export, outside the
		// request timeout and compression.
		r.Get("/jobs/{jobID}/events", s.handleJobEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
			r.Use(middleware.Compress(5))

			r.Get("/", s.handleDashboard)

			// Resource screens
			r.Get("/r/{resource}", s.handleList)
			r.Get("/r/{resource}/new", s.handleNewForm)
			r.Post("/r/{resource}", s.handleCreate)
			r.Get("/r/{resource}/{id}/edit", s.handleEditForm)
			r.Post("/r/{resource}/{id}", s.handleUpdate)
			r.Post("/r/{resource}/{id}/delete", s.handleDelete)

			// CSV import and export
			r.Get("/transfer/{entity}", s.handleTransferPage)
			r.Group(func(r chi.Router) {
				if s.transferLimiter != nil {
					r.Use(s.transferLimiter.Middleware)
				}
				r.Post("/transfer/{entity}/export", s.handleStartExport)
				r.Post("/transfer/{entity}/import", s.handleImport)
			})

			// Jobs
			r.Get("/jobs", s.handleJobs)
			r.Get("/jobs/{jobID}", s.handleJobStatus)
			r.Get("/jobs/{jobID}/download", s.handleDownload)

			// JSON
			r.Get("/api/transfer/{entity}/plan", s.handlePlan)
			r.Get("/api/busy", s.handleBusy)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout, // 0 keeps SSE open
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server, then the background jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	if jobErr := s.service.Shutdown(ctx); err == nil {
		err = jobErr
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) sweepLimiters() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.limiter.Sweep()
			s.transferLimiter.Sweep()
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":      "ok",
		"active_jobs": s.service.Busy().ActiveCount(),
	})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Views carry their own inline styles and the progress script.
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:")

		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
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
