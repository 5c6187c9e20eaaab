package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/scentadmin/internal/api"
)

func TestRequireSession(t *testing.T) {
	s := Session{Name: "sid", MaxAge: time.Hour}

	var gotToken string
	h := RequireSession(s)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = api.TokenFromContext(r.Context())
	}))

	t.Run("no cookie redirects with next", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/r/notes?search=rose", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?next=%2Fr%2Fnotes%3Fsearch%3Drose", rec.Header().Get("Location"))
	})

	t.Run("htmx gets HX-Redirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/transfer/notes/export", nil)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
	})

	t.Run("cookie token reaches the context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "abc", gotToken)
	})
}

func TestSession_SetAndClear(t *testing.T) {
	s := Session{Name: "sid", Secure: true, MaxAge: 2 * time.Hour}

	rec := httptest.NewRecorder()
	s.Set(rec, "tok")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.Equal(t, 7200, cookies[0].MaxAge)
	assert.True(t, cookies[0].Secure)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	rec = httptest.NewRecorder()
	s.Clear(rec)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1001").Code)

	rec := call("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Other clients have their own bucket.
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000").Code)
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(10)
	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")

	assert.Equal(t, 0, rl.Sweep())

	rl.mu.Lock()
	rl.visitors["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	assert.Equal(t, 1, rl.Sweep())
	assert.Len(t, rl.visitors, 1)
}

func TestTrustedRealIP(t *testing.T) {
	var seen string
	h := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.5", "bogus"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = ClientIP(r)
		}),
	)

	tests := []struct {
		name   string
		remote string
		header map[string]string
		want   string
	}{
		{"untrusted peer keeps its address", "203.0.113.9:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.9"},
		{"trusted CIDR uses X-Real-IP", "10.1.2.3:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted IP uses first forwarded hop", "192.168.1.5:5000", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"}, "5.6.7.8"},
		{"garbage header is ignored", "10.1.2.3:5000", map[string]string{"X-Real-IP": "not-an-ip"}, "10.1.2.3"},
		{"no header", "10.1.2.3:5000", nil, "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestParseTrustedNets(t *testing.T) {
	nets := ParseTrustedNets([]string{" 10.0.0.0/8 ", "", "::1", "nope"})
	require.Len(t, nets, 2)
	assert.True(t, isTrusted(extractIP("[::1]:80"), nets))
	assert.False(t, isTrusted(extractIP("11.0.0.1"), nets))
	assert.False(t, isTrusted(nil, nets))
}

func TestLogger_RecordsStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pot", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())

	_, ok := any(&responseWriter{ResponseWriter: rec}).(http.Flusher)
	assert.True(t, ok)
}
