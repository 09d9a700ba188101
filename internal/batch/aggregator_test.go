package batch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/registry"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2025, 4, d, 12, 0, 0, 0, time.UTC)
}

func purchase(item string, d int) models.Purchase {
	return models.Purchase{
		ID:             models.PurchaseID(models.ProviderAmazon, item),
		ProviderID:     models.ProviderAmazon,
		ProviderItemID: item,
		Title:          "item " + item,
		Price:          decimal.NewFromInt(1),
		Currency:       "EUR",
		PurchaseDate:   day(d),
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDateRange_String(t *testing.T) {
	tests := []struct {
		name     string
		dr       DateRange
		expected string
	}{
		{
			name: "valid date range",
			dr: DateRange{
				Start: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
			},
			expected: "2025-04-01_2025-06-30",
		},
		{
			name:     "zero dates",
			dr:       DateRange{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.dr.String())
		})
	}
}

func TestDateRange_Merge(t *testing.T) {
	tests := []struct {
		name     string
		dr1      DateRange
		dr2      DateRange
		expected DateRange
	}{
		{
			name:     "overlapping ranges",
			dr1:      DateRange{Start: day(1), End: day(20)},
			dr2:      DateRange{Start: day(15), End: day(30)},
			expected: DateRange{Start: day(1), End: day(30)},
		},
		{
			name:     "one range is zero",
			dr1:      DateRange{},
			dr2:      DateRange{Start: day(5), End: day(6)},
			expected: DateRange{Start: day(5), End: day(6)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.dr1.Merge(tt.dr2))
		})
	}
}

func TestAggregator_GroupFilesByProvider(t *testing.T) {
	dir := t.TempDir()
	amazon1 := writeFile(t, dir, "orders-1.csv",
		"Order ID,Order Date,Product Name,Unit Price,Quantity\n111-1,2024-01-02,Cable,9.99,1\n")
	amazon2 := writeFile(t, dir, "orders-2.csv",
		"Order ID,Order Date,Product Name,Unit Price,Quantity\n111-2,2024-01-03,Lamp,19.99,1\n")
	olx := writeFile(t, dir, "olx.json",
		`{"items":[{"id":"1","title":"Lamp","price":"10 zł","status":"finished"}]}`)
	junk := writeFile(t, dir, "notes.txt", "nothing to see here\n")

	logger := logging.NewMockLogger()
	a := NewAggregator(registry.Default(), logger)

	groups, unrecognised, err := a.GroupFilesByProvider([]string{olx, amazon1, junk, amazon2}, "")
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, models.ProviderAmazon, groups[0].Provider)
	assert.Equal(t, []string{amazon1, amazon2}, groups[0].Files)
	assert.Equal(t, models.ProviderOLX, groups[1].Provider)
	assert.Equal(t, []string{junk}, unrecognised)
	assert.True(t, logger.HasEntry("WARN", "Skipping unrecognised file"))
}

func TestAggregator_GroupFilesByProvider_Forced(t *testing.T) {
	a := NewAggregator(registry.Default(), logging.NewMockLogger())

	groups, unrecognised, err := a.GroupFilesByProvider([]string{"a.csv", "b.csv"}, models.ProviderTemu)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, models.ProviderTemu, groups[0].Provider)
	assert.Len(t, groups[0].Files, 2)
	assert.Empty(t, unrecognised)
}

func TestAggregator_GroupFilesByProvider_MissingFile(t *testing.T) {
	a := NewAggregator(registry.Default(), logging.NewMockLogger())

	_, _, err := a.GroupFilesByProvider([]string{filepath.Join(t.TempDir(), "missing.csv")}, "")
	require.Error(t, err)
}

func TestAggregator_AggregatePurchases(t *testing.T) {
	logger := logging.NewMockLogger()
	a := NewAggregator(registry.Default(), logger)

	byFile := map[string][]models.Purchase{
		"/in/march.csv": {purchase("b", 3), purchase("a", 1)},
		"/in/april.csv": {purchase("c", 2), purchase("a", 1)},
	}
	parse := func(path string) ([]models.Purchase, error) {
		if path == "/in/broken.csv" {
			return nil, errors.New("boom")
		}
		return byFile[path], nil
	}

	group := FileGroup{Provider: models.ProviderAmazon, Files: []string{"/in/march.csv", "/in/broken.csv", "/in/april.csv"}}
	got, sources := a.AggregatePurchases(group, parse)

	assert.Equal(t, []string{"march.csv", "april.csv"}, sources)
	require.Len(t, got, 4)
	var items []string
	for _, p := range got {
		items = append(items, p.ProviderItemID)
	}
	assert.Equal(t, []string{"a", "a", "c", "b"}, items)

	assert.True(t, logger.HasEntry("ERROR", "Failed to parse file"))
	assert.True(t, logger.HasEntry("WARN", "Found purchases repeated across files"))
}

func TestAggregator_GenerateOutputFilename(t *testing.T) {
	a := NewAggregator(registry.Default(), nil)

	assert.Equal(t, "ebay_2025-04-01_2025-04-09.csv",
		a.GenerateOutputFilename(models.ProviderEbay, DateRange{Start: day(1), End: day(9)}))
	assert.Equal(t, "ebay.csv", a.GenerateOutputFilename(models.ProviderEbay, DateRange{}))
}

func TestAggregator_GenerateSourceFileHeader(t *testing.T) {
	a := NewAggregator(registry.Default(), nil)

	assert.Empty(t, a.GenerateSourceFileHeader(nil, day(1)))

	header := a.GenerateSourceFileHeader([]string{"a.csv", "b.json"}, day(1))
	lines := strings.Split(strings.TrimSuffix(header, "\n"), "\n")
	assert.Equal(t, []string{
		"# Consolidated from source files:",
		"# - a.csv",
		"# - b.json",
		"# Generated on: 2025-04-01 12:00:00",
		"#",
	}, lines)
}

func TestCalculateDateRange(t *testing.T) {
	assert.Equal(t, DateRange{}, CalculateDateRange(nil))

	got := CalculateDateRange([]models.Purchase{purchase("a", 5), purchase("b", 2), purchase("c", 9)})
	assert.Equal(t, DateRange{Start: day(2), End: day(9)}, got)
}
