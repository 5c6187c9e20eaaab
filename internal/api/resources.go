package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/scentadmin/internal/catalog"
)

// ListParams are the query parameters of a paginated list request.
type ListParams struct {
	Page   int
	Limit  int
	Search string
	Sort   string
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	return q
}

// Pagination is the optional pagination block of a list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
	Pages      int `json:"pages"`
}

// ListResult is a page of records.
type ListResult struct {
	Data       []catalog.Record `json:"data"`
	Total      int              `json:"total"`
	Pagination *Pagination      `json:"pagination,omitempty"`
}

// TotalItems returns the collection size, preferring the top-level total.
func (r ListResult) TotalItems() int {
	if r.Total > 0 {
		return r.Total
	}
	if r.Pagination != nil {
		return r.Pagination.Total
	}
	return 0
}

// PageCount returns the number of pages for the given page size.
func (r ListResult) PageCount(limit int) int {
	if r.Pagination != nil {
		if r.Pagination.TotalPages > 0 {
			return r.Pagination.TotalPages
		}
		if r.Pagination.Pages > 0 {
			return r.Pagination.Pages
		}
	}
	if limit <= 0 {
		return 1
	}
	total := r.TotalItems()
	return (total + limit - 1) / limit
}

// List fetches one page of a resource.
func (c *Client) List(ctx context.Context, res catalog.Resource, p ListParams) (ListResult, error) {
	var out ListResult
	err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   res.Path,
		Query:  p.values(),
		Tags:   []string{res.Key},
	}, &out)
	return out, err
}

// Get fetches one record.
func (c *Client) Get(ctx context.Context, res catalog.Resource, id string) (catalog.Record, error) {
	var raw map[string]any
	err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   res.Path + "/" + url.PathEscape(id),
		Tags:   []string{res.Key},
	}, &raw)
	if err != nil {
		return nil, err
	}
	return unwrapRecord(raw), nil
}

// Create adds a record and returns the backend's copy.
func (c *Client) Create(ctx context.Context, res catalog.Resource, rec catalog.Record) (catalog.Record, error) {
	var raw map[string]any
	err := c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        res.Path,
		Body:        rec,
		Invalidates: []string{res.Key, DashboardTag},
	}, &raw)
	if err != nil {
		return nil, err
	}
	return unwrapRecord(raw), nil
}

// Update replaces a record's editable fields.
func (c *Client) Update(ctx context.Context, res catalog.Resource, id string, rec catalog.Record) (catalog.Record, error) {
	var raw map[string]any
	err := c.Do(ctx, Request{
		Method:      http.MethodPut,
		Path:        res.Path + "/" + url.PathEscape(id),
		Body:        rec,
		Invalidates: []string{res.Key, DashboardTag},
	}, &raw)
	if err != nil {
		return nil, err
	}
	return unwrapRecord(raw), nil
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, res catalog.Resource, id string) error {
	return c.Do(ctx, Request{
		Method:      http.MethodDelete,
		Path:        res.Path + "/" + url.PathEscape(id),
		Invalidates: []string{res.Key, DashboardTag},
	}, nil)
}

// unwrapRecord accepts both a bare object and {"data": {...}}.
func unwrapRecord(raw map[string]any) catalog.Record {
	if inner, ok := raw["data"].(map[string]any); ok {
		return catalog.Record(inner)
	}
	return catalog.Record(raw)
}

// asInt reads a JSON number decoded with UseNumber.
func asInt(v any) int {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, _ := n.Float64()
			return int(f)
		}
		return int(i)
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
