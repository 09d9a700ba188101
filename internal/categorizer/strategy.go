// Package categorizer infers a category for purchases the provider export
// left uncategorized.
package categorizer

import (
	"context"

	"fjacquet/purchase-ledger/internal/models"
)

// Uncategorized is never assigned; strategies returning it count as a miss.
const Uncategorized = "Uncategorized"

// Strategy is one way of guessing a category.
type Strategy interface {
	// Categorize returns the category and whether the strategy found one.
	// Errors are reserved for failures the caller should know about; a
	// miss is ("", false, nil).
	Categorize(ctx context.Context, p models.Purchase) (string, bool, error)

	// Name returns the name of this strategy for logging and debugging purposes.
	Name() string
}
