package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/scentadmin/internal/catalog"
)

// Count returns the number of records in a resource by requesting a
// single-item page and reading its total. The response cache is bypassed so
// export plans are sized from the current total.
func (c *Client) Count(ctx context.Context, res catalog.Resource) (int, error) {
	var list ListResult
	err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   res.Path,
		Query:  ListParams{Page: 1, Limit: 1}.values(),
	}, &list)
	if err != nil {
		return 0, err
	}
	return list.TotalItems(), nil
}

type exportResponse struct {
	Data []catalog.Record `json:"data"`
}

// ExportBatch fetches one export page. It is never cached.
func (c *Client) ExportBatch(ctx context.Context, res catalog.Resource, page, limit int) ([]catalog.Record, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out exportResponse
	if err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   res.Path + "/export",
		Query:  q,
	}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ImportResponse is the backend's bulk import summary.
type ImportResponse struct {
	Imported int    `json:"imported"`
	Failed   int    `json:"failed"`
	Message  string `json:"message,omitempty"`
}

type importRequest struct {
	Items []catalog.Record `json:"items"`
}

// Import posts records in one request.
func (c *Client) Import(ctx context.Context, res catalog.Resource, items []catalog.Record) (ImportResponse, error) {
	var out ImportResponse
	err := c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        res.Path + "/import",
		Body:        importRequest{Items: items},
		Invalidates: []string{res.Key, DashboardTag},
	}, &out)
	return out, err
}
