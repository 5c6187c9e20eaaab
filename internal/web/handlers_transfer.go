package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JonMunkholm/scentadmin/internal/batch"
	"github.com/JonMunkholm/scentadmin/internal/catalog"
	"github.com/JonMunkholm/scentadmin/internal/core"
	"github.com/JonMunkholm/scentadmin/internal/history"
	"github.com/JonMunkholm/scentadmin/internal/logging"
	"github.com/JonMunkholm/scentadmin/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size limit for the form
// envelope.
const multipartOverhead = 1 << 20

const recentJobs = 5

// handleTransferPage renders the batch picker and import form. A "job"
// query parameter attaches the page to a running or finished export.
func (s *Server) handleTransferPage(w http.ResponseWriter, r *http.Request) {
	res, err := exportableParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	params := templates.TransferParams{Resource: res}
	if id, err := uuid.Parse(r.URL.Query().Get("job")); err == nil {
		if p, err := s.service.Progress(r.Context(), id); err == nil && p.Entity == res.Key {
			params.JobID = id.String()
		}
	}

	s.renderTransfer(w, r, http.StatusOK, params)
}

// renderTransfer fills in the plan, busy flag and recent jobs, then renders
// the page. A failed count is shown as an error instead of the picker.
func (s *Server) renderTransfer(w http.ResponseWriter, r *http.Request, status int, p templates.TransferParams) {
	ctx := r.Context()
	logger := logging.WithFields(ctx, "entity", p.Resource.Key)

	plan, err := s.service.Plan(ctx, p.Resource.Key)
	if err != nil {
		if s.sessionExpired(w, r, err) {
			return
		}
		logger.Warn("export plan unavailable", "error", err)
		if p.Error == nil {
			msg := core.MapError(err)
			p.Error = &msg
		}
	}
	p.Plan = plan
	p.Busy = s.service.Busy().IsBusy(p.Resource.Key)

	recent, err := s.service.Jobs(ctx, history.Filter{Entity: p.Resource.Key, Limit: recentJobs})
	if err != nil {
		logger.Warn("job history unavailable", "error", err)
	} else {
		p.Recent = recent.Jobs
	}

	render(w, r, status, templates.TransferPage(templates.SidebarParams{ActiveResource: p.Resource.Key}, p))
}

// handleStartExport starts a background export of every batch (mode=all) or
// of the checked batches. Browsers are redirected to the page that follows
// the job; JSON clients get the job id.
func (s *Server) handleStartExport(w http.ResponseWriter, r *http.Request) {
	res, err := exportableParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, err)
		return
	}

	var id uuid.UUID
	if r.PostForm.Get("mode") == "all" {
		id, err = s.service.StartExportAll(r.Context(), res.Key)
	} else {
		var batches []int
		batches, err = parseBatches(r.PostForm["batch"])
		if err == nil {
			id, err = s.service.StartExportSelected(r.Context(), res.Key, batches)
		}
	}
	if err != nil {
		s.transferError(w, r, res, err)
		return
	}

	if wantsJSON(r) {
		writeJSONStatus(w, http.StatusAccepted, map[string]string{
			"job_id":   id.String(),
			"events":   "/jobs/" + id.String() + "/events",
			"download": "/jobs/" + id.String() + "/download",
		})
		return
	}
	http.Redirect(w, r, "/transfer/"+res.Key+"?job="+id.String(), http.StatusSeeOther)
}

// parseBatches reads checked batch numbers. Anything that is not a positive
// integer is out of range.
func parseBatches(values []string) ([]int, error) {
	if len(values) == 0 {
		return nil, batch.ErrNoBatchesSelected
	}
	out := make([]int, 0, len(values))
	for _, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, batch.ErrBatchOutOfRange
		}
		out = append(out, n)
	}
	return out, nil
}

// handleImport reads an uploaded CSV and imports it in one request.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	res, err := exportableParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	maxSize := s.service.Config().MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			err = core.ErrFileTooLarge
		case errors.Is(err, http.ErrNotMultipart):
			err = core.ErrNoFile
		}
		s.transferError(w, r, res, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.transferError(w, r, res, core.ErrNoFile)
		return
	}
	defer file.Close()

	logger := logging.WithFields(r.Context(), "entity", res.Key, "file", header.Filename, "size", header.Size)
	logger.Info("import upload received")

	result, err := s.service.ImportFromReader(r.Context(), res.Key, file)
	if err != nil {
		if result != nil && !wantsJSON(r) {
			// Keep the counts visible next to the error.
			msg := core.MapError(err)
			s.renderTransfer(w, r, statusFor(err), templates.TransferParams{Resource: res, Import: result, Error: &msg})
			return
		}
		s.transferError(w, r, res, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, result)
		return
	}
	s.renderTransfer(w, r, http.StatusOK, templates.TransferParams{Resource: res, Import: result})
}

// transferError shows an export or import failure on the transfer page.
// JSON clients and expired sessions go through respondError.
func (s *Server) transferError(w http.ResponseWriter, r *http.Request, res catalog.Resource, err error) {
	if wantsJSON(r) || errors.Is(err, core.ErrUnknownEntity) {
		s.respondError(w, r, err)
		return
	}
	if s.sessionExpired(w, r, err) {
		return
	}

	logging.WithFields(r.Context(), "entity", res.Key).Warn("transfer failed", "error", err)
	msg := core.MapError(err)
	s.renderTransfer(w, r, statusFor(err), templates.TransferParams{Resource: res, Error: &msg})
}

// handlePlan returns the batch descriptors of an entity as JSON.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	res, err := exportableParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	plan, err := s.service.Plan(r.Context(), res.Key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, plan)
}

// handleBusy reports which entities have an operation running.
func (s *Server) handleBusy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Busy().Status())
}
