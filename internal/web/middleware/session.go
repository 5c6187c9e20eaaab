package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/JonMunkholm/scentadmin/internal/api"
)

// Session reads and writes the cookie that holds the backend token.
type Session struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Token returns the session token, or "" when there is none.
func (s Session) Token(r *http.Request) string {
	c, err := r.Cookie(s.Name)
	if err != nil {
		return ""
	}
	return c.Value
}

// Set stores token in an HttpOnly cookie.
func (s Session) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear removes the session cookie.
func (s Session) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RedirectToLogin clears the session and sends the browser to /login,
// remembering where it was going. HTMX requests get an HX-Redirect header
// instead of a 303.
func (s Session) RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	s.Clear(w)

	target := "/login"
	if r.Method == http.MethodGet && r.URL.Path != "/" {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// RequireSession returns middleware that rejects requests without a session
// cookie and otherwise puts the token in the request context, where the API
// client picks it up.
func RequireSession(s Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := s.Token(r)
			if token == "" {
				slog.Debug("auth: no session",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				s.RedirectToLogin(w, r)
				return
			}

			ctx := api.WithToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
