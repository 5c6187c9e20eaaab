package api

import (
	"context"

	"github.com/JonMunkholm/scentadmin/internal/catalog"
)

// MergePages appends the records of page to existing for an infinite-scroll
// list. Page 1 resets the list. Records whose key field is already present
// are skipped so a shifted page boundary does not duplicate rows. Records
// without a key are always appended.
func MergePages(existing, next []catalog.Record, page int, key string) []catalog.Record {
	if page <= 1 {
		existing = nil
	}

	seen := make(map[string]bool, len(existing)+len(next))
	out := make([]catalog.Record, 0, len(existing)+len(next))
	for _, rec := range existing {
		if k := rec.Text(key); k != "" {
			seen[k] = true
		}
		out = append(out, rec)
	}

	for _, rec := range next {
		k := rec.Text(key)
		if k != "" {
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		out = append(out, rec)
	}
	return out
}

// ListPages fetches pages 1..pages of a resource and merges them.
func (c *Client) ListPages(ctx context.Context, res catalog.Resource, p ListParams, pages int) (ListResult, error) {
	var merged ListResult
	for page := 1; page <= pages; page++ {
		p.Page = page
		list, err := c.List(ctx, res, p)
		if err != nil {
			return ListResult{}, err
		}
		merged.Data = MergePages(merged.Data, list.Data, page, "_id")
		merged.Total = list.TotalItems()
		merged.Pagination = list.Pagination
		if len(list.Data) < p.Limit || page >= list.PageCount(p.Limit) {
			break
		}
	}
	return merged, nil
}
