package templates

import (
	"context"

	"github.com/a-h/templ"
)

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<div class="alert error" role="alert">`)
		h.text(message)
		if action != "" {
			h.raw(`<br><span class="muted">`)
			h.text(action)
			h.raw(`</span>`)
		}
		if code != "" {
			h.rawf(` <small>(%s)</small>`, code)
		}
		h.raw(`</div>`)
	})
}

// NoticeAlert renders an informational message, e.g. nothing to export.
func NoticeAlert(message string) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<div class="alert notice" role="status">`)
		h.text(message)
		h.raw(`</div>`)
	})
}

// SuccessAlert renders a confirmation message.
func SuccessAlert(message string) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<div class="alert success" role="status">`)
		h.text(message)
		h.raw(`</div>`)
	})
}
