package templates

import (
	"context"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/scentadmin/internal/catalog"
)

// SidebarParams selects the highlighted sidebar entry.
type SidebarParams struct {
	ActivePage     string // "dashboard", "jobs"
	ActiveResource string
}

// Layout wraps body in the admin shell: header, sidebar and main column.
func Layout(title string, sidebar SidebarParams, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.rawf(`<title>%s · Scent Admin</title>`, title)
		h.raw(`<style>`)
		h.raw(styles)
		h.raw(`</style></head><body>`)
		h.raw(`<header class="topbar"><a class="brand" href="/">Scent Admin</a>`)
		h.raw(`<form method="post" action="/logout"><button class="link" type="submit">Log out</button></form></header>`)
		h.raw(`<div class="shell"><nav class="sidebar">`)
		navLink(h, "/", "Dashboard", sidebar.ActivePage == "dashboard")
		navLink(h, "/jobs", "Import & export history", sidebar.ActivePage == "jobs")
		for _, group := range catalog.Groups() {
			h.rawf(`<h4>%s</h4>`, group)
			for _, res := range catalog.ByGroup(group) {
				navLink(h, path("r", res.Key), res.Label, sidebar.ActiveResource == res.Key)
			}
		}
		h.raw(`</nav><main>`)
		h.render(ctx, body)
		h.raw(`</main></div></body></html>`)
	})
}

func navLink(h *html, href, label string, active bool) {
	h.rawf(`<a href="%s"`, href)
	if active {
		h.raw(` class="active"`)
	}
	h.raw(`>`)
	h.text(label)
	h.raw(`</a>`)
}

// Bare renders a page without the sidebar, for the login screen.
func Bare(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.rawf(`<title>%s · Scent Admin</title>`, title)
		h.raw(`<style>`)
		h.raw(styles)
		h.raw(`</style></head><body class="bare">`)
		h.render(ctx, body)
		h.raw(`</body></html>`)
	})
}

const styles = `
body{font-family:system-ui,sans-serif;margin:0;color:#1f2933;background:#f5f7fa}
a{color:#3b5bdb}
.topbar{display:flex;justify-content:space-between;align-items:center;padding:.6rem 1.2rem;background:#1f2933;color:#fff}
.topbar .brand{color:#fff;font-weight:600;text-decoration:none}
.shell{display:flex;min-height:calc(100vh - 48px)}
.sidebar{width:220px;padding:1rem;background:#fff;border-right:1px solid #e4e7eb}
.sidebar a{display:block;padding:.25rem .4rem;text-decoration:none;border-radius:4px}
.sidebar a.active{background:#e0e7ff;font-weight:600}
.sidebar h4{margin:1rem 0 .3rem;font-size:.75rem;text-transform:uppercase;color:#7b8794}
main{flex:1;padding:1.5rem 2rem}
table{border-collapse:collapse;width:100%;background:#fff}
th,td{border-bottom:1px solid #e4e7eb;padding:.45rem .6rem;text-align:left;font-size:.9rem}
.cards{display:flex;flex-wrap:wrap;gap:1rem}
.card{background:#fff;border:1px solid #e4e7eb;border-radius:6px;padding:1rem;min-width:160px}
.card .value{font-size:1.6rem;font-weight:600}
.alert{padding:.7rem 1rem;border-radius:4px;margin:1rem 0}
.alert.error{background:#ffe3e3;color:#a61e4d}
.alert.notice{background:#fff3bf;color:#7c5e10}
.alert.success{background:#d3f9d8;color:#2b8a3e}
.field{margin-bottom:.8rem}.field label{display:block;font-weight:600}
.field .error{color:#c92a2a;font-size:.85rem}.field .hint{color:#7b8794;font-size:.8rem}
input[type=text],input[type=email],input[type=url],input[type=number],input[type=password],input[type=date],textarea,select{width:100%;max-width:560px;padding:.4rem}
.progress{width:100%;max-width:560px;height:14px;background:#e4e7eb;border-radius:7px;overflow:hidden}
.progress div{height:100%;background:#3b5bdb;width:0}
button.link{background:none;border:none;color:inherit;cursor:pointer}
.bare{display:flex;justify-content:center;padding-top:10vh}
.muted{color:#7b8794}
`
