// Package tabular turns delimited text and spreadsheet sheets into rows keyed
// by header name. The text tokenizers are small state machines so that the
// two marketplace dialects (RFC-4180 and the apostrophe/semicolon export) are
// handled by the same code path with different settings.
package tabular

import "strings"

// Dialect describes how a delimited export quotes and separates fields.
type Dialect struct {
	Delimiter rune
	Quote     rune
	// DoubledQuoteEscape enables "" (or '') as an escaped quote inside a
	// quoted field.
	DoubledQuoteEscape bool
}

var (
	// RFC4180 is the comma-separated dialect with double quotes.
	RFC4180 = Dialect{Delimiter: ',', Quote: '"', DoubledQuoteEscape: true}
	// Semicolon is the localized dialect: semicolons and apostrophes, no
	// escaping inside quoted fields.
	Semicolon = Dialect{Delimiter: ';', Quote: '\'', DoubledQuoteEscape: false}
)

// Row is one data row keyed by trimmed header name.
type Row map[string]string

type tokenizer struct {
	d        Dialect
	rows     [][]string
	row      []string
	field    strings.Builder
	inQuotes bool
}

func (t *tokenizer) endField() {
	t.row = append(t.row, t.field.String())
	t.field.Reset()
}

func (t *tokenizer) endRow() {
	t.endField()
	t.rows = append(t.rows, t.row)
	t.row = nil
}

// Tokenize splits text into raw fields. Line endings may be \n or \r\n.
// An unterminated quote at end of input flushes whatever was accumulated.
func (d Dialect) Tokenize(text string) [][]string {
	t := &tokenizer{d: d}
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if t.inQuotes {
			if c == d.Quote {
				if d.DoubledQuoteEscape && i+1 < len(runes) && runes[i+1] == d.Quote {
					t.field.WriteRune(c)
					i++
					continue
				}
				t.inQuotes = false
				continue
			}
			t.field.WriteRune(c)
			continue
		}

		switch c {
		case d.Quote:
			t.inQuotes = true
		case d.Delimiter:
			t.endField()
		case '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			t.endRow()
		case '\n':
			t.endRow()
		default:
			t.field.WriteRune(c)
		}
	}

	if t.field.Len() > 0 || len(t.row) > 0 {
		t.endRow()
	}
	return t.rows
}

// Records tokenizes text and zips every data row against the header. Blank
// rows are dropped and values are trimmed. Missing trailing fields become "".
func (d Dialect) Records(text string) []Row {
	headers, rows := splitHeader(d.Tokenize(text))
	return zip(headers, rows)
}

// Headers returns the trimmed header row, or nil for empty input.
func (d Dialect) Headers(text string) []string {
	headers, _ := splitHeader(d.Tokenize(text))
	return headers
}

// ParseRFC4180 is shorthand for RFC4180.Records.
func ParseRFC4180(text string) []Row {
	return RFC4180.Records(text)
}

// ParseSemicolon is shorthand for Semicolon.Records.
func ParseSemicolon(text string) []Row {
	return Semicolon.Records(text)
}

func splitHeader(raw [][]string) ([]string, [][]string) {
	raw = dropBlank(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return headers, raw[1:]
}

func dropBlank(raw [][]string) [][]string {
	out := raw[:0:0]
	for _, r := range raw {
		if !isBlank(r) {
			out = append(out, r)
		}
	}
	return out
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func zip(headers []string, rows [][]string) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		rec := make(Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(r) {
				rec[h] = strings.TrimSpace(r[i])
			} else {
				rec[h] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}
