package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/scentadmin/internal/api"
	"github.com/JonMunkholm/scentadmin/internal/catalog"
	"github.com/JonMunkholm/scentadmin/internal/core"
	"github.com/JonMunkholm/scentadmin/internal/logging"
	"github.com/JonMunkholm/scentadmin/internal/web/templates"
)

const (
	listPageSize = 25
	maxListPages = 40
)

var flashMessages = map[string]string{
	"created": "Saved.",
	"updated": "Changes saved.",
	"deleted": "Deleted.",
}

// handleList renders a resource's table. "pages" loads that many pages,
// merged, for the load-more link.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	res, err := resourceParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	q := r.URL.Query()
	pages := min(parseIntParam(r, "pages", 1), maxListPages)
	params := api.ListParams{
		Limit:  listPageSize,
		Search: strings.TrimSpace(q.Get("search")),
		Sort:   q.Get("sort"),
	}

	list, err := s.client.ListPages(r.Context(), res, params, pages)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	total := list.TotalItems()
	render(w, r, http.StatusOK, templates.ResourceList(
		templates.SidebarParams{ActiveResource: res.Key},
		templates.ListParams{
			Resource: res,
			Records:  list.Data,
			Total:    total,
			Pages:    pages,
			HasMore:  len(list.Data) < total && pages < maxListPages,
			Search:   params.Search,
			Sort:     params.Sort,
			Flash:    flashMessages[q.Get("flash")],
		},
	))
}

// handleNewForm renders an empty create form.
func (s *Server) handleNewForm(w http.ResponseWriter, r *http.Request) {
	res, err := resourceParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.renderForm(w, r, http.StatusOK, templates.FormParams{Resource: res, Values: map[string]string{}})
}

// handleEditForm loads a record into the edit form.
func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	res, err := resourceParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")

	rec, err := s.client.Get(r.Context(), res, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.renderForm(w, r, http.StatusOK, templates.FormParams{
		Resource: res,
		ID:       id,
		Values:   catalog.FormValues(res, rec),
	})
}

// handleCreate validates the form and creates the record.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.saveRecord(w, r, "")
}

// handleUpdate validates the form and replaces the record.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s.saveRecord(w, r, chi.URLParam(r, "id"))
}

func (s *Server) saveRecord(w http.ResponseWriter, r *http.Request, id string) {
	res, err := resourceParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, err)
		return
	}

	values := make(map[string]string, len(res.Fields))
	for _, f := range res.Fields {
		values[f.Name] = r.PostForm.Get(f.Name)
	}
	form := templates.FormParams{Resource: res, ID: id, Values: values}

	rec, err := catalog.ValidateForm(res, values)
	if err != nil {
		var valErrs catalog.ValidationErrors
		if errors.As(err, &valErrs) {
			form.Errors = valErrs
			s.renderForm(w, r, http.StatusUnprocessableEntity, form)
			return
		}
		s.respondError(w, r, err)
		return
	}

	logger := logging.WithFields(r.Context(), "resource", res.Key, "id", id)
	flash := "created"
	if id == "" {
		_, err = s.client.Create(r.Context(), res, rec)
	} else {
		_, err = s.client.Update(r.Context(), res, id, rec)
		flash = "updated"
	}
	if err != nil {
		if s.sessionExpired(w, r, err) {
			return
		}
		// Rejections are shown on the form so the input is not lost.
		if status := api.StatusOf(err); status >= 400 && status < 500 {
			logger.Warn("save rejected", "status", status, "error", err)
			form.Error = core.MapError(err).Message
			s.renderForm(w, r, statusFor(err), form)
			return
		}
		s.respondError(w, r, err)
		return
	}

	logger.Info("record saved", "action", flash)
	http.Redirect(w, r, "/r/"+res.Key+"?flash="+url.QueryEscape(flash), http.StatusSeeOther)
}

// handleDelete removes a record.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	res, err := resourceParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")

	if err := s.client.Delete(r.Context(), res, id); err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "resource", res.Key, "id", id).Info("record deleted")
	http.Redirect(w, r, "/r/"+res.Key+"?flash=deleted", http.StatusSeeOther)
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, p templates.FormParams) {
	render(w, r, status, templates.ResourceForm(templates.SidebarParams{ActiveResource: p.Resource.Key}, p))
}
