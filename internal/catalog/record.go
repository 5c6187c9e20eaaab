package catalog

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/JonMunkholm/scentadmin/internal/csvcodec"
)

// Record is one backend document as decoded from JSON.
type Record map[string]any

// ID returns the record identifier, accepting both "_id" and "id".
func (r Record) ID() string {
	for _, key := range []string{"_id", "id"} {
		if v, ok := r[key]; ok && v != nil {
			return csvcodec.Stringify(v)
		}
	}
	return ""
}

// Text returns a field rendered as display text.
func (r Record) Text(field string) string {
	return csvcodec.Stringify(r[field])
}

// FormatRow renders a record as one CSV line in the resource's column
// order. Every column yields exactly one cell.
func FormatRow(res Resource, rec Record) string {
	cells := make([]string, len(res.Columns))
	for i, col := range res.Columns {
		cells[i] = csvcodec.EscapeCSV(exportValue(col, rec[col.Field]))
	}
	return csvcodec.JoinRow(cells)
}

func exportValue(col Column, v any) any {
	if col.Kind != KindComplex {
		return v
	}
	items := complexItems(v)
	if len(col.Keys) > 0 {
		items = project(items, col.Keys)
	}
	return csvcodec.SerializeComplex(items)
}

// complexItems normalises the shapes a nested list arrives in.
func complexItems(v any) []map[string]any {
	switch x := v.(type) {
	case []map[string]any:
		return x
	case []any:
		return csvcodec.ObjectsOf(x)
	case string:
		return csvcodec.DeserializeComplex(x)
	default:
		return nil
	}
}

func project(items []map[string]any, keys []string) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		p := make(map[string]any, len(keys))
		for _, k := range keys {
			if v, ok := item[k]; ok {
				p[k] = v
			}
		}
		if len(p) > 0 {
			out = append(out, p)
		}
	}
	return out
}

// RowResult is the outcome of mapping one CSV row.
type RowResult struct {
	Record  Record
	Skipped bool // required column was empty
	Dropped int  // complex fragments that failed to decode
}

// RecordFromRow maps a parsed CSV row positionally onto the resource's
// columns. Generated columns are ignored. Missing trailing cells become ""
// for text columns, nil for number/bool columns, and an empty list for
// complex columns.
func RecordFromRow(res Resource, row []string) RowResult {
	rec := make(Record, len(res.Columns))
	result := RowResult{Record: rec}

	for i, col := range res.Columns {
		if col.Generated {
			continue
		}

		cell := ""
		if i < len(row) {
			cell = strings.TrimSpace(row[i])
		}

		if col.Required && cell == "" {
			result.Skipped = true
		}

		switch col.Kind {
		case KindComplex:
			items, dropped := csvcodec.DeserializeComplexCount(cell)
			rec[col.Field] = items
			result.Dropped += dropped
		case KindNumber:
			rec[col.Field] = parseNumber(cell)
		case KindBool:
			rec[col.Field] = parseBool(cell)
		default:
			rec[col.Field] = cell
		}
	}
	return result
}

// parseNumber keeps numeric cells as numbers in the request body. Anything
// else is passed through as text for the backend to judge.
func parseNumber(cell string) any {
	if cell == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(cell, 64); err == nil {
		return json.Number(cell)
	}
	return cell
}

func parseBool(cell string) any {
	switch strings.ToLower(cell) {
	case "true", "t", "yes", "y", "1":
		return true
	case "false", "f", "no", "n", "0":
		return false
	default:
		return nil
	}
}
