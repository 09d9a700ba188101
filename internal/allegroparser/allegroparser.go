// Package allegroparser maps Allegro purchases to the canonical model. Three
// sources share the same mappers: the checkout-forms JSON export, the
// localized CSV export and the REST API (see Fetcher).
package allegroparser

import (
	"strconv"

	"github.com/shopspring/decimal"

	"fjacquet/purchase-ledger/internal/currencyutils"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/parser"
	"fjacquet/purchase-ledger/internal/tabular"
)

const DefaultCurrency = "PLN"

const offerURL = "https://allegro.pl/oferta/"

// Keys added to each expanded line item.
const (
	keyForm      = "checkoutForm"
	keyLineCount = "lineItemCount"
)

// Localized CSV columns.
const (
	colOrderNumber = "Numer zamówienia"
	colDate        = "Data zakupu"
	colTitle       = "Nazwa oferty"
	colOfferID     = "ID oferty"
	colQuantity    = "Ilość"
	colPrice       = "Cena"
	colTotal       = "Kwota do zapłaty"
	colStatus      = "Status"
	colSeller      = "Sprzedający"
)

var (
	formStatuses = parser.Statuses("READY_FOR_PROCESSING")
	csvStatuses  = parser.Statuses("zakończone", "opłacone", "dostarczone")

	requiredFormKeys  = []string{"id", "lineItems"}
	requiredCSVColumn = []string{colOrderNumber, colDate, colTitle, colPrice}
)

// Provider returns the Allegro registration.
func Provider() parser.Provider {
	return parser.Provider{
		ID:              models.ProviderAllegro,
		Name:            "Allegro",
		Website:         "https://allegro.pl",
		DefaultCurrency: DefaultCurrency,
		Capabilities:    parser.CapabilityImport | parser.CapabilityFetch,
		Dialects: []parser.Dialect{
			parser.JSONDialect([]string{"checkoutForms"}, ExpandCheckoutForm, requiredFormKeys, MapCheckoutLine),
			parser.CSVDialect(tabular.Semicolon, requiredCSVColumn, MapCSVRow),
		},
	}
}

// ExpandCheckoutForm returns one record per line item of a checkout form.
// Each record carries the form under "checkoutForm" and the number of lines
// in the form under "lineItemCount".
func ExpandCheckoutForm(form parser.Record) []parser.Record {
	items := form.List("lineItems")
	out := make([]parser.Record, 0, len(items))
	for _, item := range items {
		line := make(parser.Record, len(item)+2)
		for k, v := range item {
			line[k] = v
		}
		line[keyForm] = map[string]interface{}(form)
		line[keyLineCount] = len(items)
		out = append(out, line)
	}
	return out
}

// MapCheckoutLine maps one expanded checkout-form line item.
func MapCheckoutLine(rec parser.Record, rc parser.RowContext) (models.Purchase, bool) {
	form := rec.Obj(keyForm)
	if form == nil || !formStatuses.Completed(form.Str("status")) {
		return models.Purchase{}, false
	}
	formID := form.Str("id")
	if formID == "" {
		return models.Purchase{}, false
	}

	unit, currency := amount(rec, "price")
	if unit.IsZero() {
		unit, currency = amount(rec, "originalPrice")
	}
	quantity := parser.Quantity(rec.Str("quantity"))

	total := decimal.Zero
	if n, _ := rec.Get(keyLineCount).(int); n == 1 {
		var totalCurrency string
		total, totalCurrency = amount(form, "summary", "totalToPay")
		if totalCurrency != "" {
			currency = totalCurrency
		}
	}

	offerID := rec.Str("offer", "id")
	lineID := rec.First("id")
	if lineID == "" {
		lineID = offerID
	}
	url := ""
	if offerID != "" {
		url = offerURL + offerID
	}
	deliveryCost, _ := amount(form, "delivery", "cost")

	b := parser.NewBuilder(models.ProviderAllegro, DefaultCurrency, rc).
		WithItemKey(formID, lineID).
		WithTitle(rec.Str("offer", "name")).
		WithPrice(parser.LineTotal(unit, quantity, total), currency).
		WithOriginalURL(url).
		WithImageURL(rec.Str("offer", "image", "url")).
		WithRaw(models.RawOrderID, formID).
		WithRaw(models.RawQuantity, quantity.String()).
		WithRaw(models.RawStatus, form.Str("status")).
		WithRaw(models.RawSeller, form.Str("seller", "login")).
		WithRaw("offerId", offerID)
	if deliveryCost.IsPositive() {
		b = b.WithRaw("deliveryCost", deliveryCost.String())
	}

	date := rec.Str("boughtAt")
	if date == "" {
		date = form.Str("updatedAt")
	}
	return parser.Accept(parser.ApplyDate(b, date, rc))
}

// MapCSVRow maps one row of the localized CSV export.
func MapCSVRow(rec parser.Record, rc parser.RowContext) (models.Purchase, bool) {
	if !csvStatuses.Completed(rec.Str(colStatus)) {
		return models.Purchase{}, false
	}
	orderNumber := rec.Str(colOrderNumber)
	if orderNumber == "" {
		return models.Purchase{}, false
	}

	unit, currency := currencyutils.ParseMoney(rec.Str(colPrice), DefaultCurrency)
	total, _ := currencyutils.ParseMoney(rec.Str(colTotal), currency)
	quantity := parser.Quantity(rec.Str(colQuantity))

	offerID := rec.Str(colOfferID)
	b := parser.NewBuilder(models.ProviderAllegro, DefaultCurrency, rc).
		WithTitle(rec.Str(colTitle)).
		WithPrice(parser.LineTotal(unit, quantity, total), currency).
		WithRaw(models.RawOrderID, orderNumber).
		WithRaw(models.RawQuantity, quantity.String()).
		WithRaw(models.RawStatus, rec.Str(colStatus)).
		WithRaw(models.RawSeller, rec.Str(colSeller))

	if offerID != "" {
		b = b.WithItemKey(orderNumber, offerID).WithOriginalURL(offerURL + offerID)
	} else {
		b = b.WithItemKey(orderNumber, rec.Str(colDate), strconv.Itoa(rc.Index))
	}
	return parser.Accept(parser.ApplyDate(b, rec.Str(colDate), rc))
}

// amount reads an Allegro money object {"amount": "12.34", "currency": "PLN"}.
func amount(rec parser.Record, path ...string) (decimal.Decimal, string) {
	obj := rec.Obj(path...)
	if obj == nil {
		return decimal.Zero, ""
	}
	value, ok := obj.Number("amount")
	if !ok {
		value = currencyutils.ParseAmount(obj.Str("amount"))
	}
	return value, obj.Str("currency")
}
