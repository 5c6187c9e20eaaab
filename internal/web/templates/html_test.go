package templates

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/scentadmin/internal/history"
)

func renderString(t *testing.T, fn func(ctx context.Context, h *html)) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, component(fn).Render(context.Background(), &buf))
	return buf.String()
}

func TestRawf_EscapesEveryArgument(t *testing.T) {
	out := renderString(t, func(_ context.Context, h *html) {
		h.rawf(`<a href="%s" title="%s">%s</a>`, `/x?a=1&b=2`, `"quoted"`, 42)
	})
	assert.Equal(t, `<a href="/x?a=1&amp;b=2" title="&#34;quoted&#34;">42</a>`, out)
}

func TestFlag(t *testing.T) {
	out := renderString(t, func(_ context.Context, h *html) {
		h.raw(`<input`)
		h.flag("required", true)
		h.flag("disabled", false)
		h.raw(`>`)
	})
	assert.Equal(t, `<input required>`, out)
}

func TestPath(t *testing.T) {
	assert.Equal(t, "/r/notes", path("r", "notes"))
	assert.Equal(t, "/r/notes/a%2Fb%20c/edit", path("r", "notes", "a/b c", "edit"))
}

func TestNavLink_EscapesLabel(t *testing.T) {
	out := renderString(t, func(_ context.Context, h *html) {
		navLink(h, "/jobs", "Import & export <history>", true)
	})
	assert.Equal(t, `<a href="/jobs" class="active">Import &amp; export &lt;history&gt;</a>`, out)
}

func TestLoginPage_EscapesInput(t *testing.T) {
	var buf bytes.Buffer
	err := LoginPage(LoginParams{
		Email: `"><script>alert(1)</script>`,
		Next:  `/r/notes?x="y"`,
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	body := buf.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, `value="&#34;&gt;&lt;script&gt;alert(1)&lt;/script&gt;"`)
	assert.Contains(t, body, `value="/r/notes?x=&#34;y&#34;"`)
}

func TestJobsTable_EscapesJobFields(t *testing.T) {
	out := renderString(t, func(_ context.Context, h *html) {
		jobsTable(h, []history.Job{{
			ID:        uuid.New(),
			Kind:      history.KindExport,
			Entity:    "notes",
			Status:    history.StatusFailed,
			Rows:      3,
			Error:     `backend said <b>no</b>`,
			StartedAt: time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC),
		}})
	})
	assert.Contains(t, out, `<td>2024-03-09 10:30</td><td>export</td><td>notes</td><td>failed</td><td>3</td>`)
	assert.Contains(t, out, `backend said &lt;b&gt;no&lt;/b&gt;`)
}
