package batch_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fjacquet/purchase-ledger/cmd/batch"
	"fjacquet/purchase-ledger/internal/config"
	"fjacquet/purchase-ledger/internal/container"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContainer(t *testing.T) *container.Container {
	t.Helper()
	cfg := &config.Config{}
	cfg.Log.Level = "error"
	cfg.Log.Format = "text"
	cfg.Database.Path = ":memory:"
	cfg.CSV.Delimiter = ";"
	cfg.Import.ProgressInterval = 50
	cfg.Import.ConcurrencyThreshold = 1000
	cfg.Currency.Target = "EUR"
	cfg.Currency.RequestsPerSecond = 5
	cfg.Currency.TimeoutSeconds = 1
	cfg.Allegro.PageSize = 100

	c, err := container.NewContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
}

func TestBatchCommand_Metadata(t *testing.T) {
	assert.Equal(t, "batch", batch.Cmd.Use)
	assert.Contains(t, batch.Cmd.Short, "Batch import")
	assert.Contains(t, batch.Cmd.Long, "Example")
	assert.NotNil(t, batch.Cmd.RunE)
}

func TestRun(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "consolidated")

	header := "Order ID,Order Date,Product Name,Unit Price,Quantity,ASIN\n"
	write(t, in, "orders-march.csv", header+"111-1,2024-03-02,USB cable,9.99,1,B001\n")
	write(t, in, "orders-april.csv", header+
		"111-1,2024-03-02,USB cable,9.99,1,B001\n"+
		"111-2,2024-04-05,Desk lamp,24.50,1,B002\n")
	write(t, in, "olx.json",
		`{"items":[{"id":"7","title":"Rower","price":"650 zł","status":"finished","created_at":"2024-02-10"}]}`)
	write(t, in, "readme.md", "# not an export\n")
	write(t, in, "unknown.csv", "foo,bar\n1,2\n")

	c := newContainer(t)
	var w bytes.Buffer
	summary, err := batch.Run(context.Background(), c, batch.Options{
		InputDir:  in,
		OutputDir: out,
		Now:       time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
	}, &w)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Files)
	assert.Equal(t, 1, summary.Unrecognised)
	assert.Equal(t, 2, summary.Providers)
	assert.Equal(t, "2024-02-10_2024-04-05", summary.DateRange.String())
	require.Len(t, summary.Written, 2)
	assert.Contains(t, w.String(), "amazon: 3 processed, 2 added")
	assert.Contains(t, w.String(), "olx: 1 processed, 1 added")

	stored, err := c.GetStore().ListPurchases(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	data, err := os.ReadFile(filepath.Join(out, "amazon_2024-03-02_2024-04-05.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "# Consolidated from source files:", lines[0])
	assert.Equal(t, "# - orders-april.csv", lines[1])
	assert.Equal(t, "# - orders-march.csv", lines[2])
	assert.Equal(t, "# Generated on: 2025-01-01 08:00:00", lines[3])
	assert.True(t, strings.HasPrefix(lines[5], "id;provider;"))
	assert.Len(t, lines, 9)
}

func TestRun_Errors(t *testing.T) {
	c := newContainer(t)
	var w bytes.Buffer

	_, err := batch.Run(context.Background(), c, batch.Options{}, &w)
	require.Error(t, err)

	_, err = batch.Run(context.Background(), c, batch.Options{InputDir: filepath.Join(t.TempDir(), "nope")}, &w)
	require.Error(t, err)

	summary, err := batch.Run(context.Background(), c, batch.Options{InputDir: t.TempDir()}, &w)
	require.NoError(t, err)
	assert.Zero(t, summary.Files)
}
