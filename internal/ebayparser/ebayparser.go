// Package ebayparser maps eBay purchase-history exports (CSV download and
// the JSON returned by the order API) to purchases.
package ebayparser

import (
	"strconv"

	"github.com/shopspring/decimal"

	"fjacquet/purchase-ledger/internal/currencyutils"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/parser"
	"fjacquet/purchase-ledger/internal/tabular"
)

const DefaultCurrency = "USD"

const (
	colOrderNumber  = "Order number"
	colItemNumber   = "Item number"
	colItemTitle    = "Item title"
	colSeller       = "Seller"
	colQuantity     = "Quantity"
	colItemPrice    = "Item price"
	colShipping     = "Shipping"
	colTotalPrice   = "Total price"
	colPurchaseDate = "Purchase date"
	colOrderStatus  = "Order status"
	colItemURL      = "Item URL"
	colImageURL     = "Image URL"
)

var (
	completedStatuses = parser.Statuses("completed", "paid", "shipped", "delivered")
	requiredColumns   = []string{colOrderNumber, colItemTitle, colItemPrice, colPurchaseDate}
	requiredJSONKeys  = []string{"orderId", "title"}
)

// Provider returns the eBay registration.
func Provider() parser.Provider {
	return parser.Provider{
		ID:              models.ProviderEbay,
		Name:            "eBay",
		Website:         "https://www.ebay.com",
		DefaultCurrency: DefaultCurrency,
		Capabilities:    parser.CapabilityImport,
		Dialects: []parser.Dialect{
			parser.CSVDialect(tabular.RFC4180, requiredColumns, MapCSVRow),
			parser.JSONDialect([]string{"purchases", "orders", "lineItems"}, nil, requiredJSONKeys, MapJSONItem),
		},
	}
}

// MapCSVRow maps one row of the purchase-history CSV.
func MapCSVRow(rec parser.Record, rc parser.RowContext) (models.Purchase, bool) {
	if !completedStatuses.Completed(rec.Str(colOrderStatus)) {
		return models.Purchase{}, false
	}
	orderNumber := rec.Str(colOrderNumber)
	if orderNumber == "" {
		return models.Purchase{}, false
	}

	unit, currency := currencyutils.ParseMoney(rec.Str(colItemPrice), DefaultCurrency)
	total, _ := currencyutils.ParseMoney(rec.Str(colTotalPrice), currency)
	quantity := parser.Quantity(rec.Str(colQuantity))

	b := parser.NewBuilder(models.ProviderEbay, DefaultCurrency, rc).
		WithTitle(rec.Str(colItemTitle)).
		WithPrice(parser.LineTotal(unit, quantity, total), currency).
		WithOriginalURL(rec.Str(colItemURL)).
		WithImageURL(rec.Str(colImageURL)).
		WithRaw(models.RawOrderID, orderNumber).
		WithRaw(models.RawQuantity, quantity.String()).
		WithRaw(models.RawStatus, rec.Str(colOrderStatus)).
		WithRaw(models.RawSeller, rec.Str(colSeller)).
		WithRaw("shipping", rec.Str(colShipping))

	// Variation listings share one item number.
	b = b.WithItemKey(orderNumber, rec.Str(colItemNumber), rec.Str(colPurchaseDate), strconv.Itoa(rc.Index))
	return parser.Accept(parser.ApplyDate(b, rec.Str(colPurchaseDate), rc))
}

// MapJSONItem maps one line item of the order API response.
func MapJSONItem(rec parser.Record, rc parser.RowContext) (models.Purchase, bool) {
	if !completedStatuses.Completed(rec.First("status", "orderStatus")) {
		return models.Purchase{}, false
	}
	orderID := rec.Str("orderId")
	if orderID == "" {
		return models.Purchase{}, false
	}

	unit, currency := money(rec, "itemPrice")
	total, totalCurrency := money(rec, "total")
	if total.IsPositive() && totalCurrency != "" {
		currency = totalCurrency
	}
	quantity := parser.Quantity(rec.Str("quantity"))

	itemID := rec.First("lineItemId", "legacyItemId", "itemId")
	b := parser.NewBuilder(models.ProviderEbay, DefaultCurrency, rc).
		WithItemKey(orderID, itemID).
		WithTitle(rec.Str("title")).
		WithPrice(parser.LineTotal(unit, quantity, total), currency).
		WithOriginalURL(rec.Str("itemWebUrl")).
		WithImageURL(rec.Str("image", "imageUrl")).
		WithCategory(rec.Str("categoryPath")).
		WithRaw(models.RawOrderID, orderID).
		WithRaw(models.RawQuantity, quantity.String()).
		WithRaw(models.RawStatus, rec.First("status", "orderStatus")).
		WithRaw(models.RawSeller, rec.Str("seller", "username"))
	if itemID == "" {
		b = b.WithItemKey(orderID, rec.Str("purchaseDate"), strconv.Itoa(rc.Index))
	}
	return parser.Accept(parser.ApplyDate(b, rec.Str("purchaseDate"), rc))
}

// money reads {"value": "12.34", "currency": "USD"}; plain strings such as
// "$12.34" are accepted too.
func money(rec parser.Record, key string) (decimal.Decimal, string) {
	if obj := rec.Obj(key); obj != nil {
		v, ok := obj.Number("value")
		if !ok {
			v = currencyutils.ParseAmount(obj.Str("value"))
		}
		return v, obj.Str("currency")
	}
	s := rec.Str(key)
	if s == "" {
		return decimal.Zero, ""
	}
	return currencyutils.ParseMoney(s, DefaultCurrency)
}
