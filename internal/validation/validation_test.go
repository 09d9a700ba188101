package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingColumns(t *testing.T) {
	headers := []string{"Order ID", " product name ", "Unit Price"}

	assert.Empty(t, MissingColumns(headers, []string{"order id", "Product Name"}))
	assert.Equal(t,
		[]string{`missing required column "Quantity"`, `missing required column "Order Date"`},
		MissingColumns(headers, []string{"Quantity", "Unit Price", "Order Date"}))
	assert.True(t, HasColumns(headers, []string{"Unit Price"}))
	assert.False(t, HasColumns(nil, []string{"Unit Price"}))
}

func TestMissingKeys(t *testing.T) {
	obj := map[string]interface{}{"id": "1", "lineItems": []interface{}{}}
	assert.Empty(t, MissingKeys(obj, []string{"id", "lineItems"}))
	assert.Equal(t, []string{`first record is missing "status"`}, MissingKeys(obj, []string{"status"}))
}

func TestIsReadableFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0600))

	assert.NoError(t, IsReadableFile(file))
	assert.ErrorContains(t, IsReadableFile(filepath.Join(dir, "missing.csv")), "does not exist")
	assert.ErrorContains(t, IsReadableFile(dir), "not a regular file")
}

func TestIsValidFilePermissions(t *testing.T) {
	assert.NoError(t, IsValidFilePermissions(0600))
	assert.NoError(t, IsValidFilePermissions(0640))
	assert.Error(t, IsValidFilePermissions(0644))
}
