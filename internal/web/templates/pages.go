package templates

import (
	"context"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/scentadmin/internal/api"
	"github.com/JonMunkholm/scentadmin/internal/catalog"
)

// LoginParams holds the login form state.
type LoginParams struct {
	Email string
	Next  string
	Error string
}

// LoginPage renders the sign-in form.
func LoginPage(p LoginParams) templ.Component {
	body := component(func(ctx context.Context, h *html) {
		h.raw(`<form class="card" method="post" action="/login"><h2>Sign in</h2>`)
		if p.Error != "" {
			h.render(ctx, ErrorAlert(p.Error, "", ""))
		}
		h.rawf(`<input type="hidden" name="next" value="%s">`, p.Next)
		h.rawf(`<div class="field"><label for="email">Email</label><input id="email" type="email" name="email" value="%s" required autofocus></div>`, p.Email)
		h.raw(`<div class="field"><label for="password">Password</label><input id="password" type="password" name="password" required></div>`)
		h.raw(`<button type="submit">Sign in</button></form>`)
	})
	return Bare("Sign in", body)
}

// DashboardParams holds the dashboard figures.
type DashboardParams struct {
	Stats api.Stats
	// Resources links every registered resource from the dashboard.
	Resources []catalog.Resource
	Error     string
}

// Dashboard renders the statistics overview.
func Dashboard(sidebar SidebarParams, p DashboardParams) templ.Component {
	body := component(func(ctx context.Context, h *html) {
		h.raw(`<h1>Dashboard</h1>`)
		if p.Error != "" {
			h.render(ctx, NoticeAlert(p.Error))
		}

		if keys := p.Stats.CountKeys(); len(keys) > 0 {
			h.raw(`<section class="cards">`)
			for _, k := range keys {
				h.rawf(`<div class="card"><div class="muted">%s</div><div class="value">%s</div></div>`,
					k, p.Stats.Counts[k])
			}
			h.raw(`</section>`)
		}

		for _, k := range p.Stats.SeriesKeys() {
			points := p.Stats.Series[k]
			h.rawf(`<h3>%s</h3><table><thead><tr><th>Period</th><th>Value</th></tr></thead><tbody>`, k)
			for _, pt := range points {
				h.rawf(`<tr><td>%s</td><td>%s</td></tr>`, pt.Label, pt.Value)
			}
			h.raw(`</tbody></table>`)
		}

		h.raw(`<h3>Manage</h3><section class="cards">`)
		for _, res := range p.Resources {
			h.rawf(`<div class="card"><a href="%s">%s</a>`, path("r", res.Key), res.Label)
			if res.Exportable() {
				h.rawf(`<div><a href="%s">CSV import &amp; export</a></div>`, path("transfer", res.Key))
			}
			h.raw(`</div>`)
		}
		h.raw(`</section>`)
	})
	return Layout("Dashboard", sidebar, body)
}
