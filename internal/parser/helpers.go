package parser

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/purchase-ledger/internal/dateutils"
	"fjacquet/purchase-ledger/internal/models"
)

// LineTotal returns the price recorded for a line: the provider-computed
// total when it is positive, otherwise unit price times quantity. A missing
// or non-positive quantity counts as one.
func LineTotal(unit, quantity, total decimal.Decimal) decimal.Decimal {
	if total.IsPositive() {
		return total
	}
	if !quantity.IsPositive() {
		quantity = decimal.NewFromInt(1)
	}
	return unit.Mul(quantity)
}

// Quantity parses a quantity cell, defaulting to one.
func Quantity(s string) decimal.Decimal {
	q, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !q.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return q
}

// StatusSet is the set of order statuses a provider treats as completed.
type StatusSet map[string]struct{}

// Statuses builds a case-insensitive StatusSet.
func Statuses(names ...string) StatusSet {
	s := make(StatusSet, len(names))
	for _, n := range names {
		s[normalizeStatus(n)] = struct{}{}
	}
	return s
}

// Completed reports whether status is a completed one. Rows that carry no
// status value at all are kept.
func (s StatusSet) Completed(status string) bool {
	status = normalizeStatus(status)
	if status == "" {
		return true
	}
	_, ok := s[status]
	return ok
}

func normalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ApplyDate parses raw as the purchase date and flags rawData when the
// parser fell back to the mapping time.
func ApplyDate(b *models.PurchaseBuilder, raw string, rc RowContext) *models.PurchaseBuilder {
	t, ok := dateutils.ParsePurchaseDate(raw, rc.Now)
	return withDate(b, t, ok)
}

// ApplyUnixOrDate is ApplyDate accepting unix timestamps too.
func ApplyUnixOrDate(b *models.PurchaseBuilder, raw string, rc RowContext) *models.PurchaseBuilder {
	t, ok := dateutils.ParseUnixOrDate(raw, rc.Now)
	return withDate(b, t, ok)
}

func withDate(b *models.PurchaseBuilder, t time.Time, ok bool) *models.PurchaseBuilder {
	b = b.WithPurchaseDate(t)
	if !ok {
		b = b.WithRaw(models.RawDateFallback, true)
	}
	return b
}

// Accept builds the purchase and converts a builder failure into a rejection.
func Accept(b *models.PurchaseBuilder) (models.Purchase, bool) {
	p, err := b.Build()
	if err != nil {
		return models.Purchase{}, false
	}
	return p, true
}

// NewBuilder starts a purchase for the provider stamped with the mapping time.
func NewBuilder(provider models.ProviderID, fallbackCurrency string, rc RowContext) *models.PurchaseBuilder {
	return models.NewPurchaseBuilder(provider, fallbackCurrency).WithImportedAt(rc.Now)
}
