package csvcodec

import "strings"

// ParseCSV splits CSV text into rows of fields.
//
// A leading BOM is stripped. Inside quotes, commas and line breaks are
// literal and "" yields a single quote. Outside quotes a comma ends the
// field and "\n", "\r\n" or a lone "\r" ends the row. Unquoted fields are
// trimmed; quoted fields are returned exactly. Blank lines produce no row.
func ParseCSV(text string) [][]string {
	text = strings.TrimPrefix(text, BOM)

	p := parser{}
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if p.inQuotes {
			if c == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					p.field.WriteRune('"')
					i++
					continue
				}
				p.inQuotes = false
				p.closed = true
				continue
			}
			p.field.WriteRune(c)
			continue
		}

		switch c {
		case '"':
			p.openQuote()
		case ',':
			p.endField()
		case '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			p.endRow()
		case '\n':
			p.endRow()
		default:
			if p.closed && isSpace(c) {
				// Padding after a closing quote is not part of the value.
				continue
			}
			p.field.WriteRune(c)
		}
	}

	p.endRow()
	return p.rows
}

type parser struct {
	rows [][]string
	row  []string

	field    strings.Builder
	inQuotes bool
	quoted   bool // current field contained a quoted section
	closed   bool // the quoted section has ended
}

// openQuote enters quote mode. Whitespace typed before the opening quote is
// discarded so ` "a,b"` parses as `a,b`.
func (p *parser) openQuote() {
	if !p.quoted && strings.TrimSpace(p.field.String()) == "" {
		p.field.Reset()
	}
	p.inQuotes = true
	p.quoted = true
	p.closed = false
}

func (p *parser) endField() {
	value := p.field.String()
	if !p.quoted {
		value = strings.TrimSpace(value)
	}
	p.row = append(p.row, value)
	p.field.Reset()
	p.quoted = false
	p.closed = false
}

// endRow closes the current row unless nothing has been read since the
// last terminator.
func (p *parser) endRow() {
	if len(p.row) == 0 && !p.quoted && strings.TrimSpace(p.field.String()) == "" {
		p.field.Reset()
		return
	}
	p.endField()
	p.rows = append(p.rows, p.row)
	p.row = nil
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t'
}
