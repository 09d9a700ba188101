// Package parser defines how a marketplace export is turned into canonical
// purchases: the Record a tokenizer produces, the MapFunc a provider applies to
// it, and the Dialect/Provider descriptors the registry dispatches on.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/parsererror"
	"fjacquet/purchase-ledger/internal/validation"
)

// Format is the container format of an export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// Capability flags what a provider supports.
type Capability uint8

const (
	CapabilityImport Capability = 1 << iota
	CapabilityFetch
)

func (c Capability) String() string {
	var parts []string
	if c&CapabilityImport != 0 {
		parts = append(parts, "import")
	}
	if c&CapabilityFetch != 0 {
		parts = append(parts, "fetch")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// ParseCapability maps "import" or "fetch" to its flag.
func ParseCapability(s string) (Capability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "import":
		return CapabilityImport, nil
	case "fetch":
		return CapabilityFetch, nil
	}
	return 0, fmt.Errorf("unknown capability %q (want import or fetch)", s)
}

// Source is an export file held in memory.
type Source struct {
	Name string
	Data []byte
}

// RowContext is the information a mapper gets besides the record itself.
// Mappers are pure given the record and this context.
type RowContext struct {
	Index int
	Now   time.Time
}

// MapFunc converts one raw record into a purchase. ok is false when the
// record is rejected (missing title or id, not a completed order, refund).
type MapFunc func(rec Record, rc RowContext) (p models.Purchase, ok bool)

// Dialect is one way a provider exports purchases.
type Dialect struct {
	Format     Format
	Extensions []string
	// Decode tokenizes the file into records ready for Map.
	Decode func(data []byte) ([]Record, error)
	// Validate returns the problems found in the file; none means valid.
	Validate func(data []byte) []string
	// Sniff reports whether the content looks like this dialect.
	Sniff func(data []byte) bool
	Map   MapFunc
}

// Provider describes a marketplace and the dialects it exports.
type Provider struct {
	ID              models.ProviderID
	Name            string
	Website         string
	DefaultCurrency string
	Capabilities    Capability
	Dialects        []Dialect
}

// Supports reports whether the provider has capability c.
func (p Provider) Supports(c Capability) bool {
	return p.Capabilities&c == c
}

// Formats lists the provider's formats in registration order.
func (p Provider) Formats() []Format {
	out := make([]Format, 0, len(p.Dialects))
	for _, d := range p.Dialects {
		out = append(out, d.Format)
	}
	return out
}

// Dialect returns the provider's dialect for format f.
func (p Provider) Dialect(f Format) (Dialect, bool) {
	for _, d := range p.Dialects {
		if d.Format == f {
			return d, true
		}
	}
	return Dialect{}, false
}

var knownExtensions = map[string]bool{".csv": true, ".json": true, ".xlsx": true, ".xls": true}

// SelectDialect picks the dialect for src: by extension first, and by
// content only when the extension says nothing and the provider has more
// than one dialect.
func (p Provider) SelectDialect(src Source) (Dialect, error) {
	ext := strings.ToLower(filepath.Ext(src.Name))
	for _, d := range p.Dialects {
		for _, e := range d.Extensions {
			if ext == e {
				return d, nil
			}
		}
	}

	unsupported := &parsererror.UnsupportedFormatError{Provider: string(p.ID), File: src.Name}
	if knownExtensions[ext] || len(p.Dialects) == 0 {
		return Dialect{}, unsupported
	}
	if len(p.Dialects) == 1 {
		return p.Dialects[0], nil
	}
	for _, d := range p.Dialects {
		if d.Sniff != nil && d.Sniff(src.Data) {
			return d, nil
		}
	}
	return Dialect{}, unsupported
}

// Validate returns the problems that prevent src from being imported.
func (p Provider) Validate(src Source) []string {
	d, err := p.SelectDialect(src)
	if err != nil {
		return []string{err.Error()}
	}
	data := StripBOM(src.Data)
	if len(strings.TrimSpace(string(data))) == 0 {
		return []string{validation.ProblemEmptyFile}
	}
	if d.Validate == nil {
		return nil
	}
	return d.Validate(data)
}

// Decode selects the dialect for src and tokenizes it.
func (p Provider) Decode(src Source) (Dialect, []Record, error) {
	d, err := p.SelectDialect(src)
	if err != nil {
		return Dialect{}, nil, err
	}
	recs, err := d.Decode(StripBOM(src.Data))
	if err != nil {
		return d, nil, &parsererror.ParseError{Provider: string(p.ID), Format: string(d.Format), Err: err}
	}
	return d, recs, nil
}

// MapRecords applies the dialect's mapper to every record in order and
// returns the accepted purchases plus the number of rejected records.
func MapRecords(d Dialect, recs []Record, now time.Time) ([]models.Purchase, int) {
	out := make([]models.Purchase, 0, len(recs))
	rejected := 0
	for i, rec := range recs {
		p, ok := d.Map(rec, RowContext{Index: i, Now: now})
		if !ok {
			rejected++
			continue
		}
		out = append(out, p)
	}
	return out, rejected
}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
