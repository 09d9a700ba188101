package totals_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"fjacquet/purchase-ledger/cmd/totals"
	"fjacquet/purchase-ledger/internal/exchange"
	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	mk := func(item, price, currency string) models.Purchase {
		return models.Purchase{
			ID:             models.PurchaseID(models.ProviderAllegro, item),
			ProviderID:     models.ProviderAllegro,
			ProviderItemID: item,
			Title:          "item " + item,
			Price:          decimal.RequireFromString(price),
			Currency:       currency,
			PurchaseDate:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		}
	}
	require.NoError(t, s.BulkAddPurchases(context.Background(), []models.Purchase{
		mk("1", "100", "PLN"),
		mk("2", "50.50", "PLN"),
		mk("3", "10", "EUR"),
	}))
	return s
}

var plnToEUR = exchange.RateFunc(func(_ context.Context, from, to string, _ time.Time) (decimal.Decimal, error) {
	switch {
	case from == to:
		return decimal.NewFromInt(1), nil
	case from == "PLN" && to == "EUR":
		return decimal.RequireFromString("0.25"), nil
	}
	return decimal.Zero, errors.New("no rate")
})

func TestTotalsCommand_Metadata(t *testing.T) {
	assert.Equal(t, "totals", totals.Cmd.Use)
	assert.NotNil(t, totals.Cmd.Flags().Lookup("convert"))
	assert.NotNil(t, totals.Cmd.Flags().Lookup("currency"))
}

func TestRun_PerCurrency(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, totals.Run(context.Background(), seed(t), nil, "EUR", &out))
	assert.Equal(t, "10.00 EUR\n150.50 PLN\n", out.String())
}

func TestRun_Convert(t *testing.T) {
	s := seed(t)
	conv := exchange.NewConverter(plnToEUR, logging.NewMockLogger())
	var out bytes.Buffer

	require.NoError(t, totals.Run(context.Background(), s, conv, "eur", &out))
	assert.Equal(t,
		"Converted 3 purchase(s) to EUR\n10.00 EUR\n150.50 PLN\nTotal: 47.63 EUR\n",
		out.String())

	stored, err := s.ListPurchases(context.Background())
	require.NoError(t, err)
	for _, p := range stored {
		assert.True(t, p.ConvertedPrice.Valid)
		assert.Equal(t, "EUR", p.ConvertedCurrency)
	}
}

func TestRun_ConvertFailure(t *testing.T) {
	conv := exchange.NewConverter(plnToEUR, logging.NewMockLogger())
	var out bytes.Buffer

	err := totals.Run(context.Background(), seed(t), conv, "USD", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conversion failed")
}

func TestRun_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, totals.Run(context.Background(), store.NewMemoryStore(), nil, "EUR", &out))
	assert.Equal(t, "No purchases stored\n", out.String())
}
