// Package aliexpressparser maps AliExpress order exports: the JSON produced
// by the order-history page and the "Order Information" spreadsheet.
package aliexpressparser

import (
	"strconv"

	"github.com/shopspring/decimal"

	"fjacquet/purchase-ledger/internal/currencyutils"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/parser"
)

const DefaultCurrency = "USD"

// SheetName is the worksheet holding the order lines.
const SheetName = "Order Information"

const (
	keyOrder     = "order"
	keyItemCount = "orderItemCount"
	keyItemIndex = "orderItemIndex"
)

const (
	colOrderID     = "Order ID"
	colOrderDate   = "Order Date"
	colOrderStatus = "Order Status"
	colStoreName   = "Store Name"
	colProductID   = "Product ID"
	colSkuID       = "SKU ID"
	colProductName = "Product Name"
	colUnitPrice   = "Unit Price"
	colQuantity    = "Quantity"
	colOrderAmount = "Order Amount"
	colImageURL    = "Image URL"
	colProductURL  = "Product URL"
)

var (
	completedStatuses = parser.Statuses("completed", "finished")
	requiredColumns   = []string{colOrderID, colOrderDate, colProductName, colUnitPrice}
	requiredOrderKeys = []string{"orderId", "items"}
)

// Provider returns the AliExpress registration.
func Provider() parser.Provider {
	return parser.Provider{
		ID:              models.ProviderAliExpress,
		Name:            "AliExpress",
		Website:         "https://www.aliexpress.com",
		DefaultCurrency: DefaultCurrency,
		Capabilities:    parser.CapabilityImport,
		Dialects: []parser.Dialect{
			parser.JSONDialect([]string{"orders", "data"}, ExpandOrder, requiredOrderKeys, MapJSONItem),
			sheetDialect(),
		},
	}
}

// sheetDialect annotates each row with the number of rows sharing its order
// so the mapper can tell whether the order amount belongs to that line alone.
func sheetDialect() parser.Dialect {
	d := parser.SheetDialect(SheetName, requiredColumns, MapSheetRow)
	decode := d.Decode
	d.Decode = func(data []byte) ([]parser.Record, error) {
		recs, err := decode(data)
		if err != nil {
			return nil, err
		}
		counts := make(map[string]int)
		for _, r := range recs {
			counts[r.Str(colOrderID)]++
		}
		for _, r := range recs {
			r[keyItemCount] = counts[r.Str(colOrderID)]
		}
		return recs, nil
	}
	return d
}

// ExpandOrder returns one record per item of an order.
func ExpandOrder(order parser.Record) []parser.Record {
	items := order.List("items")
	out := make([]parser.Record, 0, len(items))
	for i, item := range items {
		line := make(parser.Record, len(item)+3)
		for k, v := range item {
			line[k] = v
		}
		line[keyOrder] = map[string]interface{}(order)
		line[keyItemCount] = len(items)
		line[keyItemIndex] = i
		out = append(out, line)
	}
	return out
}

// MapJSONItem maps one expanded order item.
func MapJSONItem(rec parser.Record, rc parser.RowContext) (models.Purchase, bool) {
	order := rec.Obj(keyOrder)
	if order == nil {
		return models.Purchase{}, false
	}
	status := rec.Str("status")
	if status == "" {
		status = order.Str("status")
	}
	if !completedStatuses.Completed(status) {
		return models.Purchase{}, false
	}
	orderID := order.Str("orderId")
	if orderID == "" {
		return models.Purchase{}, false
	}

	unit, currency := price(rec.Str("price"))
	quantity := parser.Quantity(rec.Str("quantity"))
	total := decimal.Zero
	if n, _ := rec.Get(keyItemCount).(int); n == 1 {
		total, _ = price(order.Str("orderAmount"))
	}

	productID := rec.Str("productId")
	b := parser.NewBuilder(models.ProviderAliExpress, DefaultCurrency, rc).
		WithTitle(rec.Str("title")).
		WithPrice(parser.LineTotal(unit, quantity, total), currency).
		WithImageURL(rec.Str("imageUrl")).
		WithOriginalURL(rec.Str("productUrl")).
		WithRaw(models.RawOrderID, orderID).
		WithRaw(models.RawQuantity, quantity.String()).
		WithRaw(models.RawStatus, status).
		WithRaw(models.RawSeller, order.Str("storeName")).
		WithRaw("skuAttr", rec.Str("skuAttr"))

	if productID != "" {
		b = b.WithItemKey(orderID, productID, rec.Str("skuId"))
	} else {
		idx, _ := rec.Get(keyItemIndex).(int)
		b = b.WithItemKey(orderID, strconv.Itoa(idx))
	}
	return parser.Accept(parser.ApplyDate(b, order.Str("orderDate"), rc))
}

// MapSheetRow maps one row of the "Order Information" worksheet.
func MapSheetRow(rec parser.Record, rc parser.RowContext) (models.Purchase, bool) {
	if !completedStatuses.Completed(rec.Str(colOrderStatus)) {
		return models.Purchase{}, false
	}
	orderID := rec.Str(colOrderID)
	if orderID == "" {
		return models.Purchase{}, false
	}

	unit, currency := price(rec.Str(colUnitPrice))
	quantity := parser.Quantity(rec.Str(colQuantity))
	total := decimal.Zero
	if n, _ := rec.Get(keyItemCount).(int); n == 1 {
		total, _ = price(rec.Str(colOrderAmount))
	}

	productID := rec.Str(colProductID)
	b := parser.NewBuilder(models.ProviderAliExpress, DefaultCurrency, rc).
		WithTitle(rec.Str(colProductName)).
		WithPrice(parser.LineTotal(unit, quantity, total), currency).
		WithImageURL(rec.Str(colImageURL)).
		WithOriginalURL(rec.Str(colProductURL)).
		WithRaw(models.RawOrderID, orderID).
		WithRaw(models.RawQuantity, quantity.String()).
		WithRaw(models.RawStatus, rec.Str(colOrderStatus)).
		WithRaw(models.RawSeller, rec.Str(colStoreName))

	if productID != "" {
		b = b.WithItemKey(orderID, productID, rec.Str(colSkuID))
	} else {
		b = b.WithItemKey(orderID, strconv.Itoa(rc.Index))
	}
	return parser.Accept(parser.ApplyDate(b, rec.Str(colOrderDate), rc))
}

// price reads AliExpress price cells, which may use the pipe layout.
func price(s string) (decimal.Decimal, string) {
	if s == "" {
		return decimal.Zero, ""
	}
	amount, currency := currencyutils.ParsePipeMoney(s, DefaultCurrency)
	return amount, currency
}
