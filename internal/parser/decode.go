package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fjacquet/purchase-ledger/internal/tabular"
	"fjacquet/purchase-ledger/internal/validation"
)

// CSVDialect builds a delimited-text dialect over the given tokenizer settings.
func CSVDialect(tab tabular.Dialect, required []string, m MapFunc) Dialect {
	return Dialect{
		Format:     FormatCSV,
		Extensions: []string{".csv", ".txt"},
		Decode: func(data []byte) ([]Record, error) {
			rows := tab.Records(string(data))
			out := make([]Record, 0, len(rows))
			for _, r := range rows {
				out = append(out, FromRow(r))
			}
			return out, nil
		},
		Validate: func(data []byte) []string {
			text := string(data)
			headers := tab.Headers(text)
			if headers == nil {
				return []string{validation.ProblemEmptyFile}
			}
			problems := validation.MissingColumns(headers, required)
			if len(tab.Records(text)) == 0 {
				problems = append(problems, validation.ProblemNoDataRows)
			}
			return problems
		},
		Sniff: func(data []byte) bool {
			return validation.HasColumns(tab.Headers(string(data)), required)
		},
		Map: m,
	}
}

// JSONDialect builds a JSON dialect. The records are taken from the first of
// keys present on the top-level object, or from a bare top-level array.
// expand, when set, turns each top-level record into the records handed to m
// (one per line item for order-shaped exports). required keys are checked
// on the first top-level record.
func JSONDialect(keys []string, expand func(Record) []Record, required []string, m MapFunc) Dialect {
	decode := func(data []byte) ([]Record, error) {
		top, err := DecodeJSON(data, keys...)
		if err != nil {
			return nil, err
		}
		if expand == nil {
			return top, nil
		}
		var out []Record
		for _, rec := range top {
			out = append(out, expand(rec)...)
		}
		return out, nil
	}

	return Dialect{
		Format:     FormatJSON,
		Extensions: []string{".json"},
		Decode:     decode,
		Validate: func(data []byte) []string {
			top, err := DecodeJSON(data, keys...)
			if err != nil {
				return []string{err.Error()}
			}
			if len(top) == 0 {
				return []string{validation.ProblemNoDataRows}
			}
			return validation.MissingKeys(top[0], required)
		},
		Sniff: LooksLikeJSON,
		Map:   m,
	}
}

// SheetDialect builds a spreadsheet dialect reading the named worksheet.
func SheetDialect(sheet string, required []string, m MapFunc) Dialect {
	return Dialect{
		Format:     FormatXLSX,
		Extensions: []string{".xlsx"},
		Decode: func(data []byte) ([]Record, error) {
			_, rows, err := tabular.ReadSheet(data, sheet)
			if err != nil {
				return nil, err
			}
			out := make([]Record, 0, len(rows))
			for _, r := range rows {
				out = append(out, FromRow(r))
			}
			return out, nil
		},
		Validate: func(data []byte) []string {
			if !tabular.LooksLikeWorkbook(data) {
				return []string{"file is not an .xlsx workbook"}
			}
			headers, rows, err := tabular.ReadSheet(data, sheet)
			var missing *tabular.SheetNotFoundError
			if errors.As(err, &missing) {
				if names, nerr := tabular.SheetNames(data); nerr == nil && len(names) > 0 {
					return []string{fmt.Sprintf("%s (available: %s)", missing.Error(), strings.Join(names, ", "))}
				}
			}
			if err != nil {
				return []string{err.Error()}
			}
			problems := validation.MissingColumns(headers, required)
			if len(rows) == 0 {
				problems = append(problems, validation.ProblemNoDataRows)
			}
			return problems
		},
		Sniff: tabular.LooksLikeWorkbook,
		Map:   m,
	}
}

// DecodeJSON decodes data and returns the records of the first named array
// found on the top-level object, or of the top-level array itself. Numbers
// are kept as json.Number so amounts do not pass through float64.
func DecodeJSON(data []byte, keys ...string) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var top interface{}
	if err := dec.Decode(&top); err != nil {
		return nil, fmt.Errorf("not valid JSON: %w", err)
	}

	var arr []interface{}
	switch v := top.(type) {
	case []interface{}:
		arr = v
	case map[string]interface{}:
		for _, k := range keys {
			if a, ok := v[k].([]interface{}); ok {
				arr = a
				break
			}
		}
		if arr == nil {
			return nil, fmt.Errorf("no %s array found", quoteAll(keys))
		}
	default:
		return nil, fmt.Errorf("expected a JSON object or array")
	}

	out := make([]Record, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]interface{}); ok {
			out = append(out, Record(m))
		}
	}
	return out, nil
}

// LooksLikeJSON reports whether data starts with an object or array.
func LooksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(StripBOM(data))
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func quoteAll(keys []string) string {
	if len(keys) == 0 {
		return "top-level"
	}
	q := make([]string, len(keys))
	for i, k := range keys {
		q[i] = fmt.Sprintf("%q", k)
	}
	return strings.Join(q, " or ")
}
