package web

import (
	"context"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/carcatalog/internal/auth"
	"github.com/JonMunkholm/carcatalog/internal/logging"
	"github.com/JonMunkholm/carcatalog/internal/web/templates"
)

// healthPingTimeout bounds the database ping in /healthz.
const healthPingTimeout = 2 * time.Second

// handleRoot sends signed-in browsers to the import page and everyone else
// to the login page.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	target := "/login"
	if c, err := r.Cookie(s.cfg.Auth.CookieName); err == nil {
		if _, err := s.tokens.Parse(c.Value); err == nil {
			target = "/cars/import"
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, r, http.StatusOK, templates.Login(""))
}

func (s *Server) handleImportPage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	renderHTML(w, r, http.StatusOK, templates.Import(userID, s.cfg.Upload.MaxFileSize))
}

type healthResponse struct {
	Status         string `json:"status"`
	Database       string `json:"database"`
	ActiveImports  int    `json:"activeImports"`
	ImportCapacity int    `json:"importCapacity"`
}

// handleHealth pings the database and reports import slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	limiter := s.service.Limiter()
	resp := healthResponse{
		Status:         "ok",
		Database:       "ok",
		ActiveImports:  limiter.Active(),
		ImportCapacity: limiter.Capacity(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	status := http.StatusOK
	if err := s.db.Ping(ctx); err != nil {
		logging.FromContext(r.Context()).Error("health check failed", "error", err)
		resp.Status = "unavailable"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// renderHTML writes a templ component with the given status.
func renderHTML(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "error", err)
	}
}
