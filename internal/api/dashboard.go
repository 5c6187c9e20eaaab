package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
)

// Point is one bar of a dashboard chart.
type Point struct {
	Label string
	Value int
}

// Stats is the dashboard summary.
type Stats struct {
	Counts map[string]int
	Series map[string][]Point
}

// CountKeys returns the count names sorted.
func (s Stats) CountKeys() []string {
	keys := make([]string, 0, len(s.Counts))
	for k := range s.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SeriesKeys returns the series names sorted.
func (s Stats) SeriesKeys() []string {
	keys := make([]string, 0, len(s.Series))
	for k := range s.Series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stats fetches aggregate counts. Numeric top-level fields become counts and
// arrays of {label|name|_id, value|count} objects become chart series.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var raw map[string]any
	if err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   "/admin/dashboard/stats",
		Tags:   []string{DashboardTag},
	}, &raw); err != nil {
		return Stats{}, err
	}
	if inner, ok := raw["data"].(map[string]any); ok {
		raw = inner
	}
	return parseStats(raw), nil
}

func parseStats(raw map[string]any) Stats {
	stats := Stats{
		Counts: make(map[string]int),
		Series: make(map[string][]Point),
	}

	for key, v := range raw {
		switch x := v.(type) {
		case []any:
			var points []Point
			for _, item := range x {
				m, ok := item.(map[string]any)
				if !ok {
					continue
				}
				points = append(points, Point{Label: firstString(m, "label", "name", "_id"), Value: firstInt(m, "value", "count")})
			}
			if len(points) > 0 {
				stats.Series[key] = points
			}
		case map[string]any:
			for sub, sv := range x {
				if n, ok := numeric(sv); ok {
					stats.Counts[sub] = n
				}
			}
		default:
			if n, ok := numeric(v); ok {
				stats.Counts[key] = n
			}
		}
	}
	return stats
}

func numeric(v any) (int, bool) {
	switch v.(type) {
	case json.Number, float64, int:
		return asInt(v), true
	default:
		return 0, false
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstInt(m map[string]any, keys ...string) int {
	for _, k := range keys {
		if n, ok := numeric(m[k]); ok {
			return n
		}
	}
	return 0
}
