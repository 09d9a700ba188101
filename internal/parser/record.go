package parser

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fjacquet/purchase-ledger/internal/tabular"
)

// Record is one raw item handed to a mapper: a tabular row keyed by header
// or a decoded JSON object.
type Record map[string]interface{}

// FromRow converts a tabular row to a Record.
func FromRow(row tabular.Row) Record {
	rec := make(Record, len(row))
	for k, v := range row {
		rec[k] = v
	}
	return rec
}

// Get walks nested objects along path and returns the value found, or nil.
func (r Record) Get(path ...string) interface{} {
	var cur interface{} = map[string]interface{}(r)
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// Str returns the value at path as a trimmed string. Numbers and booleans are
// rendered; objects and arrays give "".
func (r Record) Str(path ...string) string {
	switch v := r.Get(path...).(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// First returns the first non-empty top-level value among keys.
func (r Record) First(keys ...string) string {
	for _, k := range keys {
		if s := r.Str(k); s != "" {
			return s
		}
	}
	return ""
}

// Obj returns the object at path, or nil.
func (r Record) Obj(path ...string) Record {
	m, ok := asMap(r.Get(path...))
	if !ok {
		return nil
	}
	return Record(m)
}

// List returns the objects of the array at path. Non-object elements are skipped.
func (r Record) List(path ...string) []Record {
	arr, ok := r.Get(path...).([]interface{})
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(arr))
	for _, el := range arr {
		if m, ok := asMap(el); ok {
			out = append(out, Record(m))
		}
	}
	return out
}

// Number returns the numeric value at path. Strings are accepted only when
// they are plain decimals; display strings belong to currencyutils.
func (r Record) Number(path ...string) (decimal.Decimal, bool) {
	switch v := r.Get(path...).(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	}
	return decimal.Zero, false
}

// Has reports whether path resolves to a non-nil value.
func (r Record) Has(path ...string) bool {
	return r.Get(path...) != nil
}

// Flatten returns a copy of r with nested objects and arrays dropped, the
// shape kept as rawData for tabular sources and for JSON top-level scalars.
func (r Record) Flatten() map[string]interface{} {
	out := make(map[string]interface{}, len(r))
	for k, v := range r {
		switch v.(type) {
		case map[string]interface{}, Record, []interface{}:
			continue
		case json.Number:
			out[k] = v.(json.Number).String()
		default:
			out[k] = v
		}
	}
	return out
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case Record:
		return map[string]interface{}(m), true
	}
	return nil, false
}
