package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/scentadmin/internal/api"
	"github.com/JonMunkholm/scentadmin/internal/catalog"
	"github.com/JonMunkholm/scentadmin/internal/core"
	"github.com/JonMunkholm/scentadmin/internal/logging"
	"github.com/JonMunkholm/scentadmin/internal/web/templates"
)

// handleLoginPage renders the sign-in form.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.session.Token(r) != "" {
		http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
		return
	}
	render(w, r, http.StatusOK, templates.LoginPage(templates.LoginParams{
		Next: r.URL.Query().Get("next"),
	}))
}

// handleLogin exchanges credentials for a backend token and stores it in
// the session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, err)
		return
	}

	creds := api.Credentials{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	next := r.PostForm.Get("next")
	logger := logging.WithFields(r.Context(), "email", creds.Email)

	token, err := s.client.Login(r.Context(), creds)
	if err != nil {
		msg := core.MapError(err).Message
		status := http.StatusBadGateway
		if errors.Is(err, api.ErrUnauthorized) {
			msg = "Invalid email or password"
			status = http.StatusUnauthorized
		}
		logger.Warn("login failed", "error", err)
		render(w, r, status, templates.LoginPage(templates.LoginParams{
			Email: creds.Email,
			Next:  next,
			Error: msg,
		}))
		return
	}

	logger.Info("login succeeded")
	s.session.Set(w, token)
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

// handleLogout clears the session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.session.Clear(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// safeNext only follows local paths after login.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// handleDashboard renders the statistics overview. A backend failure other
// than an expired session still renders the page, without figures.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	params := templates.DashboardParams{Resources: catalog.All()}

	stats, err := s.client.Stats(r.Context())
	if err != nil {
		if s.sessionExpired(w, r, err) {
			return
		}
		logging.FromContext(r.Context()).Warn("dashboard stats unavailable", "error", err)
		params.Error = core.MapError(err).Message
	}
	params.Stats = stats

	render(w, r, http.StatusOK, templates.Dashboard(templates.SidebarParams{ActivePage: "dashboard"}, params))
}
