package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/scentadmin/internal/catalog"
	"github.com/JonMunkholm/scentadmin/internal/core"
	"github.com/JonMunkholm/scentadmin/internal/logging"
)

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// render writes an HTML component with the given status.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "path", r.URL.Path, "error", err)
	}
}

// resourceParam resolves the {resource} URL parameter.
func resourceParam(r *http.Request) (catalog.Resource, error) {
	key := chi.URLParam(r, "resource")
	res, ok := catalog.Get(key)
	if !ok {
		return catalog.Resource{}, fmt.Errorf("%w: %s", core.ErrUnknownResource, key)
	}
	return res, nil
}

// exportableParam resolves the {entity} URL parameter to an exportable resource.
func exportableParam(r *http.Request) (catalog.Resource, error) {
	key := chi.URLParam(r, "entity")
	res, ok := catalog.Get(key)
	if !ok || !res.Exportable() {
		return catalog.Resource{}, fmt.Errorf("%w: %s", core.ErrUnknownEntity, key)
	}
	return res, nil
}

// jobParam parses the {jobID} URL parameter.
func jobParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		return uuid.Nil, core.ErrJobNotFound
	}
	return id, nil
}
