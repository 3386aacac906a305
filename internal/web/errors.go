package web

// errors.go turns handler errors into responses. Every failure is logged
// with its technical detail and request ID, and the client gets
// {success:false, statusCode, message, code} in JSON, or an error page
// when it asked for HTML. The raw error text is added as "detail" only in
// development.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/carcatalog/internal/core"
	"github.com/JonMunkholm/carcatalog/internal/logging"
	"github.com/JonMunkholm/carcatalog/internal/web/templates"
)

// APIError is an error with the status and message to show the caller.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	Action     string `json:"action,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// respondError logs err and writes the matching error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	userMsg := core.MapError(err)

	level := slog.LevelWarn
	if status >= 500 {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", userMsg.Code,
		"error", err.Error(),
	)

	if wantsHTML(r) {
		renderHTML(w, r, status, templates.Error(status, message, userMsg.Action, userMsg.Code))
		return
	}

	resp := ErrorResponse{
		StatusCode: status,
		Message:    message,
		Code:       userMsg.Code,
		Action:     userMsg.Action,
	}
	if s.cfg.Server.IsDevelopment() {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

// classify picks the status and caller-facing message for err.
func classify(err error) (int, string) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, apiErr.Message
	}

	var streamErr *core.StreamError
	if errors.As(err, &streamErr) {
		return http.StatusBadRequest, "Error parsing CSV: " + streamErr.Err.Error()
	}

	var loginErr *core.LoginError
	if errors.As(err, &loginErr) {
		return http.StatusUnauthorized, loginErr.Message
	}

	switch {
	case errors.Is(err, core.ErrNoFile):
		return http.StatusBadRequest, "No file uploaded"
	case errors.Is(err, core.ErrNotCSV):
		return http.StatusBadRequest, "Only CSV files are allowed"
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, core.MapError(err).Message
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusTooManyRequests, core.MapError(err).Message
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, core.MapError(err).Message
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, core.MapError(err).Message
	}

	return http.StatusInternalServerError, "Internal Server Error"
}

// wantsHTML reports whether the client prefers an HTML response. JSON wins
// whenever the client mentions it.
func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return false
	}
	return strings.Contains(accept, "text/html")
}
