package tag_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"fjacquet/purchase-ledger/cmd/tag"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagCommand_Metadata(t *testing.T) {
	assert.Equal(t, "tag <purchase-id> [tag...]", tag.Cmd.Use)
	assert.NotNil(t, tag.Cmd.Args)
}

func TestRun(t *testing.T) {
	s := store.NewMemoryStore()
	id := models.PurchaseID(models.ProviderOLX, "9")
	require.NoError(t, s.AddPurchase(context.Background(), models.Purchase{
		ID:             id,
		ProviderID:     models.ProviderOLX,
		ProviderItemID: "9",
		Title:          "Rower",
		Price:          decimal.NewFromInt(650),
		Currency:       "PLN",
		PurchaseDate:   time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC),
	}))

	var out bytes.Buffer
	require.NoError(t, tag.Run(context.Background(), s, id, []string{"sport", " ", "bike"}, &out))
	assert.Equal(t, id+": bike, sport\n", out.String())

	out.Reset()
	require.NoError(t, tag.Run(context.Background(), s, id, nil, &out))
	assert.Equal(t, id+": bike, sport\n", out.String())
}

func TestRun_UnknownPurchase(t *testing.T) {
	var out bytes.Buffer
	err := tag.Run(context.Background(), store.NewMemoryStore(), "missing", []string{"x"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "purchase missing not found")
}
