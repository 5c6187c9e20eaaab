package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "json")

	logger.Info("hidden")
	logger.Warn("shown", "entity", "notes")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "notes", entry["entity"])
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "text").Info("hello", "rows", 3)
	assert.Contains(t, buf.String(), "msg=hello rows=3")
}

func TestFromContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	Setup(&buf, "info", "json")
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WithFields(r.Context(), "entity", "brands").Info("in request")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.NotEmpty(t, entry["request_id"])
	assert.Equal(t, "brands", entry["entity"])

	buf.Reset()
	FromContext(context.Background()).Info("no request")
	assert.NotContains(t, buf.String(), "request_id")
}
