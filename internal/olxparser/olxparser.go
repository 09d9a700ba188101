// Package olxparser maps OLX delivery purchases to the canonical model.
package olxparser

import (
	"github.com/shopspring/decimal"

	"fjacquet/purchase-ledger/internal/currencyutils"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/parser"
)

const DefaultCurrency = "PLN"

var (
	completedStatuses = parser.Statuses("finished", "completed", "delivered")
	requiredKeys      = []string{"id"}
)

// Provider returns the OLX registration.
func Provider() parser.Provider {
	return parser.Provider{
		ID:              models.ProviderOLX,
		Name:            "OLX",
		Website:         "https://www.olx.pl",
		DefaultCurrency: DefaultCurrency,
		Capabilities:    parser.CapabilityImport,
		Dialects: []parser.Dialect{
			parser.JSONDialect([]string{"items", "data"}, nil, requiredKeys, MapJSONItem),
		},
	}
}

// MapJSONItem maps one purchased advert.
func MapJSONItem(rec parser.Record, rc parser.RowContext) (models.Purchase, bool) {
	if rec.Str("id") == "" || !completedStatuses.Completed(rec.Str("status")) {
		return models.Purchase{}, false
	}

	title := rec.Str("title")
	if title == "" {
		title = rec.Str("ad", "title")
	}
	unit, currency := money(rec, "price")
	total, totalCurrency := money(rec, "total_price")
	if total.IsPositive() && totalCurrency != "" {
		currency = totalCurrency
	}
	quantity := parser.Quantity(rec.Str("quantity"))

	image := ""
	if photos := rec.List("photos"); len(photos) > 0 {
		image = photos[0].Str("url")
	}

	b := parser.NewBuilder(models.ProviderOLX, DefaultCurrency, rc).
		WithItemKey(rec.Str("transaction_id"), rec.Str("id")).
		WithTitle(title).
		WithPrice(parser.LineTotal(unit, quantity, total), currency).
		WithOriginalURL(rec.First("url", "ad_url")).
		WithImageURL(image).
		WithCategory(rec.Str("category", "name")).
		WithRaw(models.RawStatus, rec.Str("status")).
		WithRaw(models.RawSeller, rec.Str("seller", "name")).
		WithRaw("transactionId", rec.Str("transaction_id"))
	return parser.Accept(parser.ApplyDate(b, rec.First("created_at", "purchased_at"), rc))
}

// money accepts {"value": 12.5, "currency": "PLN"}, display strings like
// "1 299 zł" and bare numbers.
func money(rec parser.Record, key string) (decimal.Decimal, string) {
	if obj := rec.Obj(key); obj != nil {
		v, ok := obj.Number("value")
		if !ok {
			v = currencyutils.ParseAmount(obj.Str("value"))
		}
		return v, obj.Str("currency")
	}
	if v, ok := rec.Number(key); ok {
		return v, ""
	}
	s := rec.Str(key)
	if s == "" {
		return decimal.Zero, ""
	}
	return currencyutils.ParseMoney(s, DefaultCurrency)
}
