package categorizer

import (
	"context"

	"fjacquet/purchase-ledger/internal/models"
)

// AIClient asks a language model for a category. allowed lists the names the
// answer should be chosen from; it may be empty.
type AIClient interface {
	Suggest(ctx context.Context, p models.Purchase, allowed []string) (string, error)
}
