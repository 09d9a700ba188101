package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstants(t *testing.T) {
	names := []string{
		FieldFile, FieldProvider, FieldFormat, FieldPurchaseID, FieldItemID,
		FieldRow, FieldCount, FieldAdded, FieldUpdated, FieldEnriched, FieldSkipped,
	}
	seen := make(map[string]bool)
	for _, n := range names {
		assert.NotEmpty(t, n)
		assert.False(t, seen[n], "duplicate field name %q", n)
		seen[n] = true
	}
}
