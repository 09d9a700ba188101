package export_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fjacquet/purchase-ledger/cmd/export"
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
	mk := func(provider models.ProviderID, item, title string, day int) models.Purchase {
		return models.Purchase{
			ID:             models.PurchaseID(provider, item),
			ProviderID:     provider,
			ProviderItemID: item,
			Title:          title,
			Price:          decimal.RequireFromString("12.5"),
			Currency:       "EUR",
			PurchaseDate:   time.Date(2024, 6, day, 12, 0, 0, 0, time.UTC),
		}
	}
	ctx := context.Background()
	require.NoError(t, s.BulkAddPurchases(ctx, []models.Purchase{
		mk(models.ProviderEbay, "e1", "Camera strap", 1),
		mk(models.ProviderTemu, "t1", "Phone case", 2),
	}))
	require.NoError(t, s.AssignTag(ctx, models.TagAssignment{PurchaseID: models.PurchaseID(models.ProviderEbay, "e1"), Tag: "gift"}))
	return s
}

func TestExportCommand_Metadata(t *testing.T) {
	assert.Equal(t, "export", export.Cmd.Use)
	assert.NotNil(t, export.Cmd.RunE)
}

func TestRun_Stdout(t *testing.T) {
	s := seed(t)
	var out bytes.Buffer

	n, err := export.Run(context.Background(), s, export.Options{Delimiter: ','}, &out, logging.NewMockLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id,provider,provider_item_id"))
	assert.Contains(t, lines[1], "Camera strap")
	assert.Contains(t, lines[1], ",gift,")
	assert.Contains(t, lines[2], "Phone case")
}

func TestRun_ProviderToFile(t *testing.T) {
	s := seed(t)
	path := filepath.Join(t.TempDir(), "out", "temu.csv")

	n, err := export.Run(context.Background(), s, export.Options{Output: path, Provider: "Temu", Delimiter: ';'}, nil, logging.NewMockLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Phone case")
}

func TestRun_Empty(t *testing.T) {
	var out bytes.Buffer
	n, err := export.Run(context.Background(), store.NewMemoryStore(), export.Options{}, &out, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}
