// Package web provides the HTTP server for login and CSV car imports.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/carcatalog/internal/auth"
	"github.com/JonMunkholm/carcatalog/internal/config"
	"github.com/JonMunkholm/carcatalog/internal/core"
	webmw "github.com/JonMunkholm/carcatalog/internal/web/middleware"
)

// limiterCleanupInterval is how often idle rate limit buckets are dropped.
const limiterCleanupInterval = time.Minute

// Pinger reports whether the database is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the catalog service.
type Server struct {
	service  *core.Service
	tokens   *auth.TokenService
	db       Pinger
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	limiters []*webmw.RateLimiter
}

// NewServer creates a Server with middleware and routes installed.
func NewServer(service *core.Service, tokens *auth.TokenService, db Pinger, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		tokens:  tokens,
		db:      db,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(webmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(webmw.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute).Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	timeout := chimw.Timeout(s.cfg.Server.RequestTimeout)

	s.router.With(timeout).Get("/healthz", s.handleHealth)
	s.router.With(timeout).Get("/", s.handleRoot)
	s.router.With(timeout).Get("/login", s.handleLoginPage)

	s.router.Route("/auth", func(r chi.Router) {
		r.Use(timeout)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
	})

	s.router.Route("/cars", func(r chi.Router) {
		r.Use(webmw.RequireAuth(s.tokens, s.cfg.Auth.CookieName))

		r.With(timeout).Get("/import", s.handleImportPage)

		// Imports run under the service's own timeout rather than the
		// request timeout.
		upload := r.With()
		if s.cfg.Rate.Enabled {
			upload = r.With(s.newLimiter(s.cfg.Rate.UploadLimit).Middleware)
		}
		upload.Post("/upload-csv", s.handleUploadCSV)
		upload.Post("/preview-csv", s.handlePreviewCSV)
	})
}

func (s *Server) newLimiter(perMinute int) *webmw.RateLimiter {
	rl := webmw.NewRateLimiter(perMinute)
	s.limiters = append(s.limiters, rl)
	return rl
}

// Start begins listening for HTTP requests. It returns http.ErrServerClosed
// after Shutdown, including when Shutdown ran first.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr, "env", s.cfg.Server.Environment)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// RunLimiterCleanup drops idle rate limit buckets until ctx is done.
func (s *Server) RunLimiterCleanup(ctx context.Context) {
	for _, rl := range s.limiters {
		go rl.Run(ctx, limiterCleanupInterval)
	}
	<-ctx.Done()
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; form-action 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// apiResponse is the envelope for every successful JSON response.
type apiResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

// writeSuccess writes data wrapped in the success envelope.
func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, apiResponse{
		Success:    status < 400,
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
