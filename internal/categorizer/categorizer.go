package categorizer

import (
	"context"

	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
)

// Categorizer runs its strategies in order; the first hit wins.
type Categorizer struct {
	strategies []Strategy
	logger     logging.Logger
}

// New creates a Categorizer. Nil strategies are ignored.
func New(logger logging.Logger, strategies ...Strategy) *Categorizer {
	c := &Categorizer{logger: logging.OrDefault(logger)}
	for _, s := range strategies {
		if s != nil {
			c.strategies = append(c.strategies, s)
		}
	}
	return c
}

// Strategies returns the names of the configured strategies.
func (c *Categorizer) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Categorize returns the first category found and the strategy that found it.
func (c *Categorizer) Categorize(ctx context.Context, p models.Purchase) (category, strategy string, ok bool) {
	for _, s := range c.strategies {
		name, found, err := s.Categorize(ctx, p)
		if err != nil {
			c.logger.WithError(err).Warn("Categorization strategy failed",
				logging.F("strategy", s.Name()),
				logging.F(logging.FieldPurchaseID, p.ID))
			continue
		}
		if found {
			return name, s.Name(), true
		}
	}
	return "", "", false
}

// Apply fills CategoryName on the purchases that have none and returns how
// many were filled. Existing categories are never replaced.
func (c *Categorizer) Apply(ctx context.Context, purchases []models.Purchase) int {
	if c == nil || len(c.strategies) == 0 {
		return 0
	}
	filled := 0
	for i := range purchases {
		if ctx.Err() != nil {
			break
		}
		if purchases[i].CategoryName != "" {
			continue
		}
		if name, _, ok := c.Categorize(ctx, purchases[i]); ok {
			purchases[i].CategoryName = name
			filled++
		}
	}
	if filled > 0 {
		c.logger.Info("Categorized purchases", logging.F(logging.FieldCount, filled))
	}
	return filled
}
