package csvcodec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BOM is the UTF-8 byte-order mark written at the start of every export.
const BOM = "\uFEFF"

// needsQuoting lists the characters that force a cell into quotes.
const needsQuoting = ",\"\n\r"

// EscapeCSV converts v to its cell text. nil becomes the empty string. The
// result is wrapped in double quotes, with inner quotes doubled, when it
// contains a comma, a double quote, or a line break.
func EscapeCSV(v any) string {
	s := Stringify(v)
	if !strings.ContainsAny(s, needsQuoting) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Stringify renders a scalar the way it appears in an exported cell.
// Floats use the shortest exact form so whole numbers print without a
// fraction ("2019", not "2019.000000"). Times are RFC 3339 in UTC.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.UTC().Format(time.RFC3339)
	case *time.Time:
		if x == nil || x.IsZero() {
			return ""
		}
		return x.UTC().Format(time.RFC3339)
	case []map[string]any:
		return SerializeComplex(x)
	case []any:
		return SerializeComplex(ObjectsOf(x))
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// JoinRow joins already escaped cells into one CSV line.
func JoinRow(cells []string) string {
	return strings.Join(cells, ",")
}

// FormatRow escapes each value and joins the result into one CSV line.
func FormatRow(values ...any) string {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = EscapeCSV(v)
	}
	return JoinRow(cells)
}

// Document assembles a complete CSV file: BOM, header line, then the data
// lines, separated by "\n".
func Document(header []string, lines []string) string {
	var b strings.Builder
	b.WriteString(BOM)

	escaped := make([]string, len(header))
	for i, h := range header {
		escaped[i] = EscapeCSV(h)
	}
	b.WriteString(JoinRow(escaped))

	for _, line := range lines {
		b.WriteByte('\n')
		b.WriteString(line)
	}
	return b.String()
}
