// Package api is the client for the catalog backend's admin REST API.
//
// Every request carries an Authorization: Bearer header taken from the
// injected AuthContext. Non-2xx responses become *Error values; a 401 also
// matches ErrUnauthorized. GET responses can be cached under tags that
// mutations invalidate.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/scentadmin/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Options configures a Client.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	CacheTTL   time.Duration // 0 disables the response cache
	HTTPClient *http.Client  // overrides Timeout when set
	Logger     *slog.Logger
}

// Client talks to the backend.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	headers    map[string]string
	auth       AuthContext
	cache      *Cache
	logger     *slog.Logger
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, auth AuthContext, opts Options) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    u,
		headers: map[string]string{
			"Accept": "application/json",
		},
		auth:   auth,
		logger: logger,
	}
	if opts.UserAgent != "" {
		c.headers["User-Agent"] = opts.UserAgent
	}
	if opts.CacheTTL > 0 {
		c.cache = NewCache(opts.CacheTTL)
	}
	return c, nil
}

// Request is one backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Tags marks a GET response as cacheable under these tags.
	Tags []string
	// Invalidates lists the tags dropped after a successful call.
	Invalidates []string
}

// Do executes req and decodes a JSON response into out (which may be nil).
// Numbers are decoded as json.Number so identifiers and years keep their
// exact text. Cached responses are only served to the token that fetched
// them.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	u := c.buildURL(req.Path, req.Query)
	key := u.String()
	cacheKey := c.scope(ctx) + " " + key

	cacheable := c.cache != nil && req.Method == http.MethodGet && len(req.Tags) > 0
	if cacheable {
		body, ok := c.cache.Get(cacheKey)
		metrics.ObserveCache(ok)
		if ok {
			return decode(body, out)
		}
	}

	var bodyReader io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, key, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	c.authenticate(httpReq)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.ObserveBackend(req.Method, 0, time.Since(start))
		return fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()
	metrics.ObserveBackend(req.Method, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := newError(resp.StatusCode, body)
		c.logger.Warn("backend request failed",
			"method", req.Method,
			"path", req.Path,
			"status", resp.StatusCode,
			"message", apiErr.Message,
			"duration", time.Since(start),
		)
		return apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("backend request",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if cacheable {
		c.cache.Set(cacheKey, body, req.Tags...)
	}
	if c.cache != nil && len(req.Invalidates) > 0 {
		c.cache.Invalidate(req.Invalidates...)
	}

	return decode(body, out)
}

// Invalidate drops cached responses carrying any of the tags.
func (c *Client) Invalidate(tags ...string) {
	if c.cache != nil {
		c.cache.Invalidate(tags...)
	}
}

func (c *Client) buildURL(path string, query url.Values) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return &u
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
