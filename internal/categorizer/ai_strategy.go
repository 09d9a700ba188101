package categorizer

import (
	"context"
	"strings"

	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
)

// AIStrategy asks an AIClient. Client failures are logged and count as a
// miss so one bad call never stops an import.
type AIStrategy struct {
	client  AIClient
	allowed []string
	logger  logging.Logger
}

// NewAIStrategy creates a new AIStrategy instance.
func NewAIStrategy(client AIClient, allowed []string, logger logging.Logger) *AIStrategy {
	return &AIStrategy{client: client, allowed: allowed, logger: logging.OrDefault(logger)}
}

func (s *AIStrategy) Name() string {
	return "AI"
}

func (s *AIStrategy) Categorize(ctx context.Context, p models.Purchase) (string, bool, error) {
	if s.client == nil || strings.TrimSpace(p.Title) == "" {
		return "", false, nil
	}

	category, err := s.client.Suggest(ctx, p, s.allowed)
	if err != nil {
		s.logger.WithError(err).Warn("AI categorization failed",
			logging.F("strategy", s.Name()),
			logging.F(logging.FieldPurchaseID, p.ID))
		return "", false, nil
	}

	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, Uncategorized) {
		return "", false, nil
	}
	return category, true, nil
}
