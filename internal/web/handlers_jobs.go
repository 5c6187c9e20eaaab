package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/scentadmin/internal/catalog"
	"github.com/JonMunkholm/scentadmin/internal/core"
	"github.com/JonMunkholm/scentadmin/internal/history"
	"github.com/JonMunkholm/scentadmin/internal/logging"
	"github.com/JonMunkholm/scentadmin/internal/web/templates"
)

// keepAliveInterval spaces SSE comments that stop proxies from closing an
// idle stream during a long batch delay.
const keepAliveInterval = 15 * time.Second

// handleJobEvents streams export progress via Server-Sent Events.
// Supports resumption via lastEventId query parameter for reconnection.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	id, err := jobParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	// The event ID is the progress percentage, so a reconnecting client
	// skips what it already has. The final event is always sent.
	lastEventIDStr := r.URL.Query().Get("lastEventId")
	if lastEventIDStr == "" {
		lastEventIDStr = r.Header.Get("Last-Event-ID")
	}
	lastEventID, _ := strconv.Atoi(lastEventIDStr)

	progressCh, err := s.service.Subscribe(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, fmt.Errorf("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				fmt.Fprint(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}

			if lastEventIDStr != "" && !progress.Finished() && progress.Percent <= lastEventID {
				continue
			}

			data, err := json.Marshal(progress)
			if err != nil {
				logging.FromContext(r.Context()).Error("encode progress", "job_id", id, "error", err)
				return
			}
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", progress.Percent, data)
			flusher.Flush()

		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleJobStatus returns the current progress of a background export.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id, err := jobParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	progress, err := s.service.Progress(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, progress)
}

// handleDownload hands out a finished export file. The file is released as
// it is sent; a second request gets 410.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := jobParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	dl, err := s.service.TakeDownload(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "job_id", id, "file", dl.FileName).Info("export downloaded", "rows", dl.Rows)

	w.Header().Set("Content-Type", core.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Content)))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(dl.Content)
}

// handleJobs renders the import/export history with entity and kind filters.
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entity := q.Get("entity")
	if _, ok := catalog.Get(entity); !ok {
		entity = ""
	}
	kind := history.Kind(q.Get("kind"))
	if kind != history.KindExport && kind != history.KindImport {
		kind = ""
	}

	page := parseIntParam(r, "page", 1)
	filter := history.Filter{
		Entity: entity,
		Kind:   kind,
		Limit:  history.DefaultListLimit,
		Offset: (page - 1) * history.DefaultListLimit,
	}

	jobs, err := s.service.Jobs(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, jobs)
		return
	}
	render(w, r, http.StatusOK, templates.JobsPage(
		templates.SidebarParams{ActivePage: "jobs"},
		templates.JobsParams{Page: jobs, Entity: entity, Kind: string(kind)},
	))
}
