package auth

import (
	"net/http"
	"strings"

	"github.com/okian/outbreak/internal/adapters/http/api"
	"github.com/okian/outbreak/internal/adapters/session"
	"github.com/okian/outbreak/pkg/logger"
)

// RequireUser rejects requests without a live session. Browsers are sent to
// the login page; API callers get a 401 JSON body.
func RequireUser(m *session.Manager, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := m.Current(r)
			if err != nil {
				if !session.IsAuthError(err) {
					// The session may be valid but cannot be verified; refuse it.
					log.Warn(r.Context(), "session check failed", logger.String("path", r.URL.Path), logger.Error(err))
					if wantsJSON(r) {
						api.WriteUnavailable(w, "auth.session")
						return
					}
					http.Redirect(w, r, "/login", http.StatusFound)
					return
				}
				log.Debug(r.Context(), "unauthenticated request", logger.String("path", r.URL.Path), logger.Error(err))
				if wantsJSON(r) {
					api.WriteUnauthorized(w, err)
					return
				}
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithUser(r.Context(), claims.User())))
		})
	}
}

// LoadUser attaches the session user to the request context when one is
// present and lets every request through.
func LoadUser(m *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, err := m.Current(r); err == nil {
				r = r.WithContext(session.WithUser(r.Context(), claims.User()))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
