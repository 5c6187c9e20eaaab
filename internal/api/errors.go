package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthorized is matched by every 401 response. The web layer clears the
// session and redirects to the login page when it sees it.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// errorBody covers the shapes the backend uses for error payloads.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// newError builds an Error from a response body, falling back to a generic
// message when the body carries none.
func newError(status int, body []byte) *Error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if msg := strings.TrimSpace(eb.Message); msg != "" {
			return &Error{Status: status, Message: msg}
		}
		if msg := strings.TrimSpace(eb.Error); msg != "" {
			return &Error{Status: status, Message: msg}
		}
	}
	return &Error{Status: status, Message: genericMessage(status)}
}

func genericMessage(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "Your session has expired"
	case status == http.StatusForbidden:
		return "You do not have permission to do that"
	case status == http.StatusNotFound:
		return "The requested item was not found"
	case status >= 500:
		return "The server encountered an error"
	default:
		return "Request failed"
	}
}

// StatusOf returns the HTTP status of a backend error, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
