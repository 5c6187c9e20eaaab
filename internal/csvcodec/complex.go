package csvcodec

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ComplexSeparator joins the JSON elements of a complex cell.
const ComplexSeparator = "|"

// escapedPipe is the JSON escape for '|'. A pipe can only appear inside a
// JSON string, so substituting it keeps the element valid JSON and keeps
// the separator unambiguous.
const escapedPipe = `\u007c`

// SerializeComplex encodes a list of flat objects into a single cell:
// JSON(item1)|JSON(item2)|... An empty or nil list yields "".
// Items that cannot be encoded (NaN, channels, funcs) are left out.
func SerializeComplex(items []map[string]any) string {
	if len(items) == 0 {
		return ""
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		encoded, err := encodeElement(item)
		if err != nil {
			continue
		}
		parts = append(parts, encoded)
	}
	return strings.Join(parts, ComplexSeparator)
}

func encodeElement(item map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(item); err != nil {
		return "", err
	}
	out := strings.TrimSuffix(buf.String(), "\n")
	return strings.ReplaceAll(out, ComplexSeparator, escapedPipe), nil
}

// DeserializeComplex decodes a complex cell. An empty cell yields an empty
// list. Segments that are not JSON objects are skipped.
func DeserializeComplex(cell string) []map[string]any {
	items, _ := DeserializeComplexCount(cell)
	return items
}

// DeserializeComplexCount is DeserializeComplex that also reports how many
// segments were skipped, so callers can surface degraded cells.
func DeserializeComplexCount(cell string) ([]map[string]any, int) {
	items := []map[string]any{}
	if strings.TrimSpace(cell) == "" {
		return items, 0
	}

	dropped := 0
	for _, segment := range strings.Split(cell, ComplexSeparator) {
		item, ok := decodeElement(segment)
		if !ok {
			dropped++
			continue
		}
		items = append(items, item)
	}
	return items, dropped
}

func decodeElement(segment string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(segment)))
	dec.UseNumber()

	var item map[string]any
	if err := dec.Decode(&item); err != nil || item == nil {
		return nil, false
	}
	// Trailing garbage after the object means the segment was corrupt.
	if dec.More() {
		return nil, false
	}
	return item, true
}

// ObjectsOf narrows a decoded JSON array to its object elements. Backend
// responses decode nested lists as []any; non-object elements are dropped.
func ObjectsOf(values []any) []map[string]any {
	out := make([]map[string]any, 0, len(values))
	for _, v := range values {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
