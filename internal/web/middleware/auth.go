package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/carcatalog/internal/auth"
)

// TokenParser validates an access token and returns the user it was issued to.
type TokenParser interface {
	Parse(token string) (int64, error)
}

// RequireAuth rejects requests without a valid access token. The token is
// read from "Authorization: Bearer <token>" first, then from the named cookie.
// On success the user ID is stored in the request context.
func RequireAuth(tokens TokenParser, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" && cookieName != "" {
				if c, err := r.Cookie(cookieName); err == nil {
					token = c.Value
				}
			}

			if token == "" {
				slog.Warn("auth: missing access token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				reject(w, http.StatusUnauthorized, "AUTH002", "Unauthorized request")
				return
			}

			userID, err := tokens.Parse(token)
			if err != nil {
				slog.Warn("auth: rejected access token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				reject(w, http.StatusUnauthorized, "AUTH002", "Invalid access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

// bearerToken extracts the token from an Authorization header. The scheme
// is matched case-insensitively.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
