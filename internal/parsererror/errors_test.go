package parsererror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		expected string
	}{
		{
			name:     "with problems",
			err:      &ValidationError{Provider: "ebay", File: "orders.csv", Problems: []string{"missing column \"Item title\"", "file contains no data rows"}},
			expected: "ebay: orders.csv is not a valid export: missing column \"Item title\"; file contains no data rows",
		},
		{
			name:     "without problems",
			err:      &ValidationError{Provider: "temu", File: "x.json"},
			expected: "temu: x.json is not a valid export",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestSimpleErrors(t *testing.T) {
	assert.Equal(t, `unknown provider "shopee"`, (&UnknownProviderError{ID: "shopee"}).Error())
	assert.Equal(t, "olx: unsupported file type for a.pdf", (&UnsupportedFormatError{Provider: "olx", File: "a.pdf"}).Error())
}

func TestWrappingErrors(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"store", &StoreError{Operation: "add", Err: cause}, "store add failed: disk full"},
		{"parse", &ParseError{Provider: "allegro", Format: "json", Err: cause}, "allegro: failed to decode json input: disk full"},
		{"fetch with status", &FetchError{Provider: "allegro", Status: 401, Err: cause}, "allegro: fetch failed with status 401: disk full"},
		{"fetch without status", &FetchError{Provider: "allegro", Err: cause}, "allegro: fetch failed: disk full"},
		{"categorization", &CategorizationError{Purchase: "Mouse", Strategy: "AI", Err: cause}, "categorization failed for Mouse using AI: disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.ErrorIs(t, tt.err, cause)
		})
	}
}

func TestErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("import: %w", &StoreError{Operation: "update", Err: errors.New("locked")})

	var storeErr *StoreError
	assert.True(t, errors.As(wrapped, &storeErr))
	assert.Equal(t, "update", storeErr.Operation)
}
