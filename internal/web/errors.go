package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical details and request id, then
// shown to the user as the message, action and code from core.MapError. A
// backend 401 ends the session instead: the cookie is cleared and the
// browser is sent to /login.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/scentadmin/internal/api"
	"github.com/JonMunkholm/scentadmin/internal/batch"
	"github.com/JonMunkholm/scentadmin/internal/catalog"
	"github.com/JonMunkholm/scentadmin/internal/core"
	"github.com/JonMunkholm/scentadmin/internal/logging"
	"github.com/JonMunkholm/scentadmin/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for an error.
func statusFor(err error) int {
	var valErrs catalog.ValidationErrors
	switch {
	case errors.Is(err, core.ErrUnknownEntity), errors.Is(err, core.ErrUnknownResource),
		errors.Is(err, core.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrOperationBusy), errors.Is(err, core.ErrTooManyJobs),
		errors.Is(err, core.ErrJobRunning):
		return http.StatusConflict
	case errors.Is(err, core.ErrDownloadGone):
		return http.StatusGone
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrEmptyFile), errors.Is(err, core.ErrNoValidRecords), errors.Is(err, core.ErrNoFile),
		errors.Is(err, batch.ErrNoBatchesSelected), errors.Is(err, batch.ErrBatchOutOfRange),
		errors.As(err, &valErrs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNothingToExport):
		return http.StatusOK
	case errors.Is(err, api.ErrUnauthorized):
		return http.StatusUnauthorized
	}

	switch status := api.StatusOf(err); {
	case status == http.StatusNotFound:
		return http.StatusNotFound
	case status == http.StatusConflict:
		return http.StatusConflict
	case status >= 400 && status < 500:
		return http.StatusUnprocessableEntity
	case status >= 500:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and returns an appropriate response
// based on the request type (JSON or HTML).
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if s.sessionExpired(w, r, err) {
		return
	}

	statusCode := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= 500 {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, statusCode)
		return
	}
	respondErrorHTML(w, r, userMsg, statusCode)
}

// sessionExpired ends the session when the backend rejected the token.
func (s *Server) sessionExpired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, api.ErrUnauthorized) {
		return false
	}
	logging.FromContext(r.Context()).Info("session rejected by backend", "path", r.URL.Path)
	if wantsJSON(r) {
		s.session.Clear(w)
		respondErrorJSON(w, core.MapError(err), http.StatusUnauthorized)
		return true
	}
	s.session.RedirectToLogin(w, r)
	return true
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	writeJSONStatus(w, statusCode, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML renders the error alert inside the page layout.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)

	alert := templates.ErrorAlert(msg.Message, msg.Action, msg.Code)
	if isHTMX(r) {
		alert.Render(r.Context(), w)
		return
	}
	templates.Layout("Error", templates.SidebarParams{}, alert).Render(r.Context(), w)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
