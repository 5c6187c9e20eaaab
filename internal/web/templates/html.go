// Package templates renders the admin's HTML views as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// html writes markup and remembers the first write error so components can
// be written as straight-line code.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// text writes s escaped for element content and attribute values.
func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// rawf writes format as markup with every argument escaped. Arguments are
// rendered as by %v, so format uses %s verbs only.
func (h *html) rawf(format string, args ...any) {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = templ.EscapeString(fmt.Sprint(a))
	}
	h.raw(fmt.Sprintf(format, escaped...))
}

// flag writes a boolean attribute such as " disabled" when on.
func (h *html) flag(name string, on bool) {
	if on {
		h.raw(" " + name)
	}
}

func (h *html) render(ctx context.Context, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// component adapts a straight-line writer function into a templ.Component.
func component(fn func(ctx context.Context, h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		fn(ctx, h)
		return h.err
	})
}

func itoa(n int) string { return strconv.Itoa(n) }

// path joins escaped segments into an absolute URL path.
func path(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// query builds "?k=v&..." from pairs, skipping empty values.
func query(pairs ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			q.Set(pairs[i], pairs[i+1])
		}
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
