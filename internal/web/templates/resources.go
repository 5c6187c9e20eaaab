package templates

import (
	"context"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/scentadmin/internal/catalog"
	"github.com/JonMunkholm/scentadmin/internal/csvcodec"
)

// ListParams holds a resource list screen.
type ListParams struct {
	Resource catalog.Resource
	Records  []catalog.Record
	Total    int
	Pages    int  // pages loaded so far
	HasMore  bool // another page exists
	Search   string
	Sort     string
	Flash    string
}

// ResourceList renders the paginated table of a resource with a "load more"
// link that asks for one more page.
func ResourceList(sidebar SidebarParams, p ListParams) templ.Component {
	res := p.Resource
	body := component(func(ctx context.Context, h *html) {
		h.rawf(`<h1>%s <small class="muted">%s</small></h1>`, res.Label, p.Total)
		if p.Flash != "" {
			h.render(ctx, SuccessAlert(p.Flash))
		}

		h.rawf(`<p><a href="%s">New %s</a>`, path("r", res.Key, "new"), res.Singular)
		if res.Exportable() {
			h.rawf(` · <a href="%s">CSV import &amp; export</a>`, path("transfer", res.Key))
		}
		h.raw(`</p>`)

		h.rawf(`<form method="get" action="%s">`, path("r", res.Key))
		h.rawf(`<input type="text" name="search" value="%s" placeholder="Search">`, p.Search)
		h.rawf(`<input type="hidden" name="sort" value="%s"><button type="submit">Search</button></form>`, p.Sort)

		fields := res.ListedFields()
		h.raw(`<table><thead><tr>`)
		for _, f := range fields {
			h.rawf(`<th><a href="%s%s">%s</a></th>`, path("r", res.Key), query("search", p.Search, "sort", nextSort(p.Sort, f.Name)), f.Label)
		}
		h.raw(`<th></th></tr></thead><tbody>`)

		if len(p.Records) == 0 {
			h.rawf(`<tr><td colspan="%s" class="muted">No records</td></tr>`, len(fields)+1)
		}
		for _, rec := range p.Records {
			h.raw(`<tr>`)
			for _, f := range fields {
				h.raw(`<td>`)
				h.text(cellText(f, rec[f.Name]))
				h.raw(`</td>`)
			}
			id := rec.ID()
			h.rawf(`<td><a href="%s">Edit</a> `, path("r", res.Key, id, "edit"))
			h.rawf(`<form method="post" action="%s" style="display:inline" data-confirm="Delete this %s?" onsubmit="return confirm(this.dataset.confirm)">`,
				path("r", res.Key, id, "delete"), res.Singular)
			h.raw(`<button class="link" type="submit">Delete</button></form></td></tr>`)
		}
		h.raw(`</tbody></table>`)

		if p.HasMore {
			h.rawf(`<p><a href="%s%s">Load more</a></p>`, path("r", res.Key),
				query("search", p.Search, "sort", p.Sort, "pages", itoa(p.Pages+1)))
		}
	})
	return Layout(res.Label, sidebar, body)
}

// nextSort toggles between ascending and descending on field.
func nextSort(current, field string) string {
	if current == field {
		return "-" + field
	}
	return field
}

func cellText(f catalog.FieldSpec, v any) string {
	switch f.Type {
	case catalog.FieldBool:
		if b, ok := v.(bool); ok && b {
			return "Yes"
		}
		return "No"
	case catalog.FieldComplex:
		if items, ok := v.([]any); ok {
			return itoa(len(items)) + " items"
		}
		return ""
	}
	s := csvcodec.Stringify(v)
	if r := []rune(s); len(r) > 80 {
		s = string(r[:77]) + "..."
	}
	return s
}

// FormParams holds a create or edit form.
type FormParams struct {
	Resource catalog.Resource
	ID       string // empty when creating
	Values   map[string]string
	Errors   catalog.ValidationErrors
	Error    string
}

// ResourceForm renders the create/edit form with inline field errors.
func ResourceForm(sidebar SidebarParams, p FormParams) templ.Component {
	res := p.Resource
	title := "New " + res.Singular
	action := path("r", res.Key)
	if p.ID != "" {
		title = "Edit " + res.Singular
		action = path("r", res.Key, p.ID)
	}

	body := component(func(ctx context.Context, h *html) {
		h.rawf(`<h1>%s</h1>`, title)
		if p.Error != "" {
			h.render(ctx, ErrorAlert(p.Error, "", ""))
		}
		h.rawf(`<form method="post" action="%s">`, action)
		for _, f := range res.Fields {
			formField(h, f, p.Values[f.Name], p.Errors.For(f.Name))
		}
		h.rawf(`<button type="submit">Save</button> <a href="%s">Cancel</a></form>`, path("r", res.Key))
	})
	return Layout(title, sidebar, body)
}

func formField(h *html, f catalog.FieldSpec, value, errMsg string) {
	required := f.Required()

	h.raw(`<div class="field">`)
	h.rawf(`<label for="f-%s">%s</label>`, f.Name, f.Label)

	switch f.Type {
	case catalog.FieldTextarea, catalog.FieldComplex:
		h.rawf(`<textarea id="f-%s" name="%s" rows="4"`, f.Name, f.Name)
		h.flag("required", required)
		h.raw(`>`)
		h.text(value)
		h.raw(`</textarea>`)
	case catalog.FieldBool:
		h.rawf(`<input id="f-%s" type="checkbox" name="%s" value="true"`, f.Name, f.Name)
		h.flag("checked", value == "true")
		h.raw(`>`)
	case catalog.FieldSelect:
		h.rawf(`<select id="f-%s" name="%s"`, f.Name, f.Name)
		h.flag("required", required)
		h.raw(`><option value=""></option>`)
		for _, opt := range f.Options {
			h.rawf(`<option value="%s"`, opt)
			h.flag("selected", opt == value)
			h.raw(`>`)
			h.text(opt)
			h.raw(`</option>`)
		}
		h.raw(`</select>`)
	default:
		h.rawf(`<input id="f-%s" type="%s" name="%s" value="%s"`, f.Name, inputType(f.Type), f.Name, value)
		h.flag("required", required)
		h.raw(`>`)
	}

	if f.Hint != "" {
		h.raw(`<div class="hint">`)
		h.text(f.Hint)
		h.raw(`</div>`)
	}
	if errMsg != "" {
		h.raw(`<div class="error">`)
		h.text(errMsg)
		h.raw(`</div>`)
	}
	h.raw(`</div>`)
}

func inputType(t catalog.FieldType) string {
	switch t {
	case catalog.FieldNumber:
		return "number"
	case catalog.FieldEmail:
		return "email"
	case catalog.FieldURL:
		return "url"
	case catalog.FieldDate:
		return "date"
	default:
		return "text"
	}
}
