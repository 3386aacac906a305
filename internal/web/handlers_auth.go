package web

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/carcatalog/internal/web/templates"
)

// maxLoginBody caps the login request body.
const maxLoginBody = 64 << 10

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type loginResponse struct {
	User        loginUser `json:"user"`
	AccessToken string    `json:"accessToken"`
}

// handleLogin exchanges email and password for an access token. JSON and
// form-encoded bodies are both accepted; browsers posting the login form
// are redirected to the import page.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)

	req, isForm, err := decodeLogin(r)
	if err != nil {
		s.respondError(w, r, &APIError{StatusCode: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		s.respondError(w, r, &APIError{StatusCode: http.StatusBadRequest, Message: "Email and password are required"})
		return
	}

	result, err := s.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if isForm && wantsHTML(r) {
			status, message := classify(err)
			renderHTML(w, r, status, templates.Login(message))
			return
		}
		s.respondError(w, r, err)
		return
	}

	http.SetCookie(w, s.authCookie(result.AccessToken, s.tokens.TTL()))

	if isForm && wantsHTML(r) {
		http.Redirect(w, r, "/cars/import", http.StatusSeeOther)
		return
	}

	writeSuccess(w, http.StatusOK, "User logged in successfully", loginResponse{
		User:        loginUser{ID: result.UserID, Email: result.Email},
		AccessToken: result.AccessToken,
	})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.authCookie("", -1))

	if wantsHTML(r) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	writeSuccess(w, http.StatusOK, "User logged out successfully", nil)
}

// authCookie builds the token cookie. A negative ttl expires it.
func (s *Server) authCookie(token string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     s.cfg.Auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   !s.cfg.Server.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl.Seconds())
	}
	return c
}

// decodeLogin reads credentials from a JSON or form body. The bool result
// reports whether the body was a form.
func decodeLogin(r *http.Request) (loginRequest, bool, error) {
	var req loginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return req, true, err
		}
		fallthrough
	case "multipart/form-data":
		req.Email = r.PostFormValue("email")
		req.Password = r.PostFormValue("password")
		return req, true, nil

	default:
		// An empty body decodes to empty credentials and is reported as
		// missing fields.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, false, err
		}
		return req, false, nil
	}
}
