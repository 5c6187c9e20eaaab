package templates

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/scentadmin/internal/catalog"
	"github.com/JonMunkholm/scentadmin/internal/core"
	"github.com/JonMunkholm/scentadmin/internal/history"
)

// TransferParams holds the CSV import/export screen of one entity.
type TransferParams struct {
	Resource catalog.Resource
	Plan     *core.ExportPlan
	Busy     bool
	// JobID is set right after an export was started; the page then follows
	// its progress and downloads the file when it is ready.
	JobID  string
	Import *core.ImportResult
	Notice string
	Error  *core.UserMessage
	Recent []history.Job
}

// TransferPage renders the batch picker, the import form and recent jobs.
func TransferPage(sidebar SidebarParams, p TransferParams) templ.Component {
	res := p.Resource
	body := component(func(ctx context.Context, h *html) {
		h.rawf(`<h1>%s: CSV import &amp; export</h1>`, res.Label)

		if p.Error != nil {
			if p.Error.Notice() {
				h.render(ctx, NoticeAlert(p.Error.Message))
			} else {
				h.render(ctx, ErrorAlert(p.Error.Message, p.Error.Action, p.Error.Code))
			}
		}
		if p.Notice != "" {
			h.render(ctx, NoticeAlert(p.Notice))
		}
		if p.Import != nil {
			h.render(ctx, ImportSummary(*p.Import))
		}

		h.render(ctx, ExportProgress(p.JobID))
		exportForm(h, p)
		importForm(h, p)

		if len(p.Recent) > 0 {
			h.raw(`<h2>Recent jobs</h2>`)
			jobsTable(h, p.Recent)
			h.rawf(`<p><a href="/jobs%s">All jobs</a></p>`, query("entity", res.Key))
		}
	})
	return Layout(res.Label+" CSV", sidebar, body)
}

func exportForm(h *html, p TransferParams) {
	res := p.Resource
	h.raw(`<h2>Export</h2>`)
	disabled := p.Busy || p.JobID != ""
	if disabled {
		h.raw(`<p class="muted">An operation is running for this entity.</p>`)
	}

	if p.Plan == nil || len(p.Plan.Batches) == 0 {
		h.raw(`<p class="muted">There is nothing to export.</p>`)
		return
	}

	h.rawf(`<p>%s records in %s batches of up to %s.</p>`,
		p.Plan.Total, len(p.Plan.Batches), p.Plan.BatchSize)

	action := path("transfer", res.Key, "export")
	h.rawf(`<form method="post" action="%s">`, action)
	h.raw(`<button type="submit" name="mode" value="all"`)
	h.flag("disabled", disabled)
	h.raw(`>Export all</button></form>`)

	h.rawf(`<form method="post" action="%s"><input type="hidden" name="mode" value="selected">`, action)
	h.raw(`<table><thead><tr><th></th><th>Batch</th><th>Records</th><th>Count</th></tr></thead><tbody>`)
	for _, b := range p.Plan.Batches {
		n := b.BatchNumber
		h.rawf(`<tr><td><input type="checkbox" name="batch" value="%s" id="b-%s"></td>`, n, n)
		h.rawf(`<td><label for="b-%s">Batch %s</label></td><td>%s to %s</td><td>%s</td></tr>`,
			n, n, b.StartRecord, b.EndRecord, b.Count)
	}
	h.raw(`</tbody></table>`)
	h.raw(`<button type="submit"`)
	h.flag("disabled", disabled)
	h.raw(`>Export selected batches</button></form>`)
}

func importForm(h *html, p TransferParams) {
	res := p.Resource
	h.raw(`<h2>Import</h2>`)
	h.raw(`<p class="muted">Columns, in order: `)
	h.text(strings.Join(res.Header(), ", "))
	h.raw(`. ID and timestamp columns are ignored.</p>`)

	h.rawf(`<form method="post" action="%s" enctype="multipart/form-data">`, path("transfer", res.Key, "import"))
	h.raw(`<input type="file" name="file" accept=".csv,text/csv" required>`)
	h.raw(`<button type="submit"`)
	h.flag("disabled", p.Busy || p.JobID != "")
	h.raw(`>Import</button></form>`)
}

// ImportSummary reports an import's counts.
func ImportSummary(r core.ImportResult) templ.Component {
	return component(func(ctx context.Context, h *html) {
		class := "success"
		if r.Failed > 0 || r.Skipped > 0 || r.Dropped > 0 || r.HeaderMismatch {
			class = "notice"
		}
		h.rawf(`<div class="alert %s" role="status">`, class)
		h.rawf(`Imported %s of %s records`, r.Imported, r.Sent)
		if r.Failed > 0 {
			h.rawf(`, %s failed`, r.Failed)
		}
		h.raw(`.`)
		if r.Skipped > 0 {
			h.rawf(` %s rows without a name were skipped.`, r.Skipped)
		}
		if r.Dropped > 0 {
			h.rawf(` %s unreadable list entries were dropped.`, r.Dropped)
		}
		if r.HeaderMismatch {
			h.raw(` The header row does not match the expected columns; values were read by position.`)
		}
		if r.Message != "" {
			h.raw(`<br>`)
			h.text(r.Message)
		}
		h.raw(`</div>`)
	})
}

// ExportProgress renders the progress bar of a running export and the
// script that follows it over server-sent events. It renders nothing
// without a job.
func ExportProgress(jobID string) templ.Component {
	return component(func(_ context.Context, h *html) {
		if jobID == "" {
			return
		}
		h.rawf(`<section id="export-progress" data-job="%s">`, jobID)
		h.raw(`<div class="progress"><div id="bar"></div></div>`)
		h.raw(`<p id="status" class="muted">Starting export...</p></section>`)
		h.raw(`<script>`)
		h.raw(progressScript)
		h.raw(`</script>`)
	})
}

const progressScript = `
(function(){
  var box=document.getElementById("export-progress");
  var id=box.dataset.job, bar=document.getElementById("bar"), status=document.getElementById("status");
  var es=new EventSource("/jobs/"+id+"/events");
  es.addEventListener("progress",function(e){
    var p=JSON.parse(e.data);
    bar.style.width=p.percent+"%";
    if(p.phase==="fetching"){status.textContent="Fetching batch "+p.current+" of "+p.total+" ("+p.percent+"%)";}
    if(p.phase==="done"){
      es.close();
      status.innerHTML="";
      var a=document.createElement("a");a.href="/jobs/"+id+"/download";a.textContent="Download "+p.fileName+" ("+p.rows+" rows)";
      status.appendChild(a);window.location=a.href;
    }
    if(p.phase==="failed"){
      es.close();bar.style.width="0";
      status.className=p.notice?"alert notice":"alert error";
      status.textContent=p.message+(p.code?" ("+p.code+")":"");
    }
  });
  es.addEventListener("complete",function(){es.close();});
})();
`

// JobsParams holds the job history screen.
type JobsParams struct {
	Page   *history.Page
	Entity string
	Kind   string
}

// JobsPage renders the import/export history.
func JobsPage(sidebar SidebarParams, p JobsParams) templ.Component {
	body := component(func(ctx context.Context, h *html) {
		h.raw(`<h1>Import &amp; export history</h1>`)

		h.raw(`<form method="get" action="/jobs"><select name="entity"><option value="">All entities</option>`)
		for _, res := range catalog.Exportable() {
			h.rawf(`<option value="%s"`, res.Key)
			h.flag("selected", res.Key == p.Entity)
			h.raw(`>`)
			h.text(res.Label)
			h.raw(`</option>`)
		}
		h.raw(`</select><select name="kind"><option value="">Imports and exports</option>`)
		for _, k := range []history.Kind{history.KindExport, history.KindImport} {
			h.rawf(`<option value="%s"`, k)
			h.flag("selected", string(k) == p.Kind)
			h.raw(`>`)
			h.text(string(k))
			h.raw(`</option>`)
		}
		h.raw(`</select><button type="submit">Filter</button></form>`)

		if p.Page == nil || len(p.Page.Jobs) == 0 {
			h.raw(`<p class="muted">No jobs recorded.</p>`)
			return
		}
		jobsTable(h, p.Page.Jobs)

		if p.Page.TotalPages > 1 {
			h.raw(`<p>`)
			for n := 1; n <= p.Page.TotalPages; n++ {
				if n == p.Page.Page {
					h.rawf(`<strong>%s</strong> `, n)
					continue
				}
				h.rawf(`<a href="/jobs%s">%s</a> `, query("entity", p.Entity, "kind", p.Kind, "page", itoa(n)), n)
			}
			h.raw(`</p>`)
		}
	})
	return Layout("History", sidebar, body)
}

func jobsTable(h *html, jobs []history.Job) {
	h.raw(`<table><thead><tr><th>Started</th><th>Kind</th><th>Entity</th><th>Status</th><th>Rows</th><th>Details</th></tr></thead><tbody>`)
	for _, j := range jobs {
		h.rawf(`<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>`,
			j.StartedAt.Format("2006-01-02 15:04"), j.Kind, j.Entity, j.Status, j.Rows)
		switch {
		case j.Error != "":
			h.text(j.Error)
		case j.Kind == history.KindExport:
			h.text(j.FileName)
		default:
			h.rawf(`%s imported, %s failed, %s skipped`, j.Imported, j.Failed, j.Skipped)
		}
		h.raw(`</td></tr>`)
	}
	h.raw(`</tbody></table>`)
}
