package exchange

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/store"
)

// Converter fills ConvertedPrice/ConvertedCurrency. It is the only writer of
// those fields besides the reconciliation update path, which clears them.
type Converter struct {
	rates  RateSource
	logger logging.Logger
}

// NewConverter creates a Converter.
func NewConverter(rates RateSource, logger logging.Logger) *Converter {
	return &Converter{rates: rates, logger: logging.OrDefault(logger)}
}

// Convert sets the converted price of every purchase to target using the
// rate of its purchase date. Purchases already converted to target are left
// alone. It returns how many purchases changed.
func (c *Converter) Convert(ctx context.Context, purchases []models.Purchase, target string) (int, error) {
	target = strings.ToUpper(strings.TrimSpace(target))
	if target == "" {
		return 0, fmt.Errorf("no target currency")
	}

	changed := 0
	for i := range purchases {
		p := &purchases[i]
		if p.ConvertedPrice.Valid && p.ConvertedCurrency == target {
			continue
		}

		r, err := c.rates.Rate(ctx, p.Currency, target, p.PurchaseDate)
		if err != nil {
			return changed, fmt.Errorf("convert %s: %w", p.ID, err)
		}
		p.ConvertedPrice = decimal.NewNullDecimal(p.Price.Mul(r).Round(2))
		p.ConvertedCurrency = target
		changed++
	}
	return changed, nil
}

// ConvertStored converts every stored purchase and writes the changed ones
// back with a bulk put.
func (c *Converter) ConvertStored(ctx context.Context, s store.PurchaseStore, target string) (int, error) {
	purchases, err := s.ListPurchases(ctx)
	if err != nil {
		return 0, err
	}

	before := make([]bool, len(purchases))
	for i, p := range purchases {
		before[i] = p.ConvertedPrice.Valid && p.ConvertedCurrency == strings.ToUpper(target)
	}

	n, err := c.Convert(ctx, purchases, target)
	if err != nil {
		return 0, err
	}

	changed := make([]models.Purchase, 0, n)
	for i, p := range purchases {
		if !before[i] {
			changed = append(changed, p)
		}
	}
	if err := s.BulkPutPurchases(ctx, changed); err != nil {
		return 0, err
	}

	c.logger.Info("Converted purchases",
		logging.F(logging.FieldCurrency, strings.ToUpper(target)),
		logging.F(logging.FieldCount, len(changed)))
	return len(changed), nil
}

// Totals sums prices per original currency, sorted by currency code.
func Totals(purchases []models.Purchase) []models.Money {
	sums := make(map[string]decimal.Decimal)
	for _, p := range purchases {
		sums[p.Currency] = sums[p.Currency].Add(p.Price)
	}
	out := make([]models.Money, 0, len(sums))
	for cur, amount := range sums {
		out = append(out, models.NewMoney(amount, cur))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// ConvertedTotal sums converted prices in target. Purchases without a
// conversion to target are counted in missing.
func ConvertedTotal(purchases []models.Purchase, target string) (total models.Money, missing int) {
	target = strings.ToUpper(target)
	total = models.ZeroMoney(target)
	for _, p := range purchases {
		if !p.ConvertedPrice.Valid || p.ConvertedCurrency != target {
			missing++
			continue
		}
		total.Amount = total.Amount.Add(p.ConvertedPrice.Decimal)
	}
	return total, missing
}
