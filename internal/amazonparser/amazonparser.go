// Package amazonparser maps Amazon order-history CSV exports to purchases.
package amazonparser

import (
	"strconv"
	"strings"

	"fjacquet/purchase-ledger/internal/currencyutils"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/parser"
	"fjacquet/purchase-ledger/internal/tabular"
)

// DefaultCurrency applies when neither the Currency column nor the price
// cell names one.
const DefaultCurrency = "USD"

const (
	colWebsite     = "Website"
	colOrderID     = "Order ID"
	colOrderDate   = "Order Date"
	colCurrency    = "Currency"
	colUnitPrice   = "Unit Price"
	colShipping    = "Shipping Charge"
	colTotalOwed   = "Total Owed"
	colASIN        = "ASIN"
	colCondition   = "Product Condition"
	colQuantity    = "Quantity"
	colPayment     = "Payment Instrument Type"
	colOrderStatus = "Order Status"
	colProductName = "Product Name"
)

var requiredColumns = []string{colOrderID, colOrderDate, colProductName, colUnitPrice, colQuantity}

var completedStatuses = parser.Statuses("closed", "shipped", "delivered", "complete", "completed")

// Provider returns the Amazon registration.
func Provider() parser.Provider {
	return parser.Provider{
		ID:              models.ProviderAmazon,
		Name:            "Amazon",
		Website:         "https://www.amazon.com",
		DefaultCurrency: DefaultCurrency,
		Capabilities:    parser.CapabilityImport,
		Dialects: []parser.Dialect{
			parser.CSVDialect(tabular.RFC4180, requiredColumns, MapCSVRow),
		},
	}
}

// MapCSVRow maps one order-history row. Rows are per shipped item; the ASIN
// tells lines of the same order apart.
func MapCSVRow(rec parser.Record, rc parser.RowContext) (models.Purchase, bool) {
	if !completedStatuses.Completed(rec.Str(colOrderStatus)) {
		return models.Purchase{}, false
	}
	orderID := rec.Str(colOrderID)
	if orderID == "" {
		return models.Purchase{}, false
	}

	unit, currency := currencyutils.ParseMoney(rec.Str(colUnitPrice), DefaultCurrency)
	if code := strings.ToUpper(rec.Str(colCurrency)); len(code) == 3 {
		currency = code
	}
	total, _ := currencyutils.ParseMoney(rec.Str(colTotalOwed), currency)
	quantity := parser.Quantity(rec.Str(colQuantity))
	price := parser.LineTotal(unit, quantity, total)

	asin := rec.Str(colASIN)
	b := parser.NewBuilder(models.ProviderAmazon, DefaultCurrency, rc).
		WithTitle(rec.Str(colProductName)).
		WithPrice(price, currency).
		WithOriginalURL(productURL(rec.Str(colWebsite), asin)).
		WithRaw(models.RawOrderID, orderID).
		WithRaw(models.RawQuantity, quantity.String()).
		WithRaw(models.RawStatus, rec.Str(colOrderStatus)).
		WithRaw("asin", asin).
		WithRaw("shippingCharge", rec.Str(colShipping)).
		WithRaw("condition", rec.Str(colCondition)).
		WithRaw("paymentInstrument", rec.Str(colPayment))

	// The export has no line-item id and the same ASIN can repeat within an
	// order, so the row date and index always disambiguate.
	b = b.WithItemKey(orderID, asin, rec.Str(colOrderDate), strconv.Itoa(rc.Index))
	return parser.Accept(parser.ApplyDate(b, rec.Str(colOrderDate), rc))
}

func productURL(website, asin string) string {
	website = strings.ToLower(strings.TrimSpace(website))
	if website == "" || asin == "" || strings.ContainsAny(website, " /") {
		return ""
	}
	website = strings.TrimPrefix(website, "www.")
	return "https://www." + website + "/dp/" + asin
}
