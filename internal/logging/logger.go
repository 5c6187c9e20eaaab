// Package logging configures log/slog for the server and the CLI.
//
// Request-scoped loggers carry the request_id set by chi's RequestID
// middleware; background jobs add entity and job_id through WithFields.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// New builds a logger writing to w.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Setup installs the default logger. The server logs to stdout; the CLI
// passes stderr so exported CSV can go to stdout.
func Setup(w io.Writer, level, format string) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(New(w, level, format))
}

// ParseLevel converts a string log level to slog.Level. Unknown values
// mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns the default logger, with request_id when ctx carries
// one from chi's RequestID middleware.
//
// Usage:
//
//	func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
//	    logger := logging.FromContext(r.Context())
//	    logger.Info("listing records", "resource", key)
//	}
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// WithFields returns a logger with additional structured fields, for
// operations that log several steps:
//
//	logger := logging.WithFields(ctx, "entity", entity, "kind", "export")
//	logger.Info("export started", "batches", n)
//	// ... later ...
//	logger.Info("export completed", "rows", rows)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
