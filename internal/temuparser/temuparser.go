// Package temuparser maps Temu order exports. Temu reports every amount in
// minor units (cents).
package temuparser

import (
	"strconv"

	"github.com/shopspring/decimal"

	"fjacquet/purchase-ledger/internal/currencyutils"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/parser"
)

const DefaultCurrency = "USD"

const (
	keyOrder     = "order"
	keyItemCount = "orderItemCount"
	keyItemIndex = "orderItemIndex"
)

var (
	completedStatuses = parser.Statuses("delivered", "completed", "shipped")
	requiredOrderKeys = []string{"parent_order_sn", "goods"}
)

// Provider returns the Temu registration.
func Provider() parser.Provider {
	return parser.Provider{
		ID:              models.ProviderTemu,
		Name:            "Temu",
		Website:         "https://www.temu.com",
		DefaultCurrency: DefaultCurrency,
		Capabilities:    parser.CapabilityImport,
		Dialects: []parser.Dialect{
			parser.JSONDialect([]string{"orders", "order_list"}, ExpandOrder, requiredOrderKeys, MapGoods),
		},
	}
}

// ExpandOrder returns one record per goods entry of an order.
func ExpandOrder(order parser.Record) []parser.Record {
	goods := order.List("goods")
	out := make([]parser.Record, 0, len(goods))
	for i, g := range goods {
		line := make(parser.Record, len(g)+3)
		for k, v := range g {
			line[k] = v
		}
		line[keyOrder] = map[string]interface{}(order)
		line[keyItemCount] = len(goods)
		line[keyItemIndex] = i
		out = append(out, line)
	}
	return out
}

// MapGoods maps one expanded goods entry.
func MapGoods(rec parser.Record, rc parser.RowContext) (models.Purchase, bool) {
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
	orderSN := order.Str("parent_order_sn")
	if orderSN == "" {
		return models.Purchase{}, false
	}

	unit := cents(rec, "unit_price")
	quantity := parser.Quantity(rec.Str("quantity"))
	total := decimal.Zero
	if n, _ := rec.Get(keyItemCount).(int); n == 1 {
		total = cents(order, "order_amount")
	}
	currency := rec.Str("currency")
	if currency == "" {
		currency = order.Str("currency")
	}

	b := parser.NewBuilder(models.ProviderTemu, DefaultCurrency, rc).
		WithTitle(rec.Str("goods_name")).
		WithPrice(parser.LineTotal(unit, quantity, total), currency).
		WithImageURL(rec.Str("thumb_url")).
		WithOriginalURL(rec.Str("link_url")).
		WithCategory(rec.Str("category")).
		WithRaw(models.RawOrderID, orderSN).
		WithRaw(models.RawQuantity, quantity.String()).
		WithRaw(models.RawStatus, status).
		WithRaw("unitPrice", unit.String()).
		WithRaw("specs", rec.Str("spec"))
	if shipping := cents(order, "shipping_amount"); shipping.IsPositive() {
		b = b.WithRaw("shippingAmount", shipping.String())
	}

	if goodsID := rec.Str("goods_id"); goodsID != "" {
		b = b.WithItemKey(orderSN, goodsID, rec.Str("sku_id"))
	} else {
		idx, _ := rec.Get(keyItemIndex).(int)
		b = b.WithItemKey(orderSN, strconv.Itoa(idx))
	}
	return parser.Accept(parser.ApplyUnixOrDate(b, order.Str("order_time"), rc))
}

// cents reads a minor-unit amount and returns it in major units.
func cents(rec parser.Record, key string) decimal.Decimal {
	v, ok := rec.Number(key)
	if !ok {
		v = currencyutils.ParseAmount(rec.Str(key))
	}
	return currencyutils.FromMinorUnits(v)
}
