package categorizer

import (
	"context"
	"strings"

	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
)

// KeywordStrategy picks the first rule whose keyword appears in the title.
type KeywordStrategy struct {
	rules  []Rule
	logger logging.Logger
}

// NewKeywordStrategy creates a new KeywordStrategy instance.
func NewKeywordStrategy(rules []Rule, logger logging.Logger) *KeywordStrategy {
	return &KeywordStrategy{rules: rules, logger: logging.OrDefault(logger)}
}

func (s *KeywordStrategy) Name() string {
	return "Keyword"
}

func (s *KeywordStrategy) Categorize(_ context.Context, p models.Purchase) (string, bool, error) {
	title := strings.ToLower(p.Title)
	if strings.TrimSpace(title) == "" {
		return "", false, nil
	}

	for _, rule := range s.rules {
		if !rule.appliesTo(p.ProviderID) {
			continue
		}
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" || !strings.Contains(title, kw) {
				continue
			}
			s.logger.Debug("Purchase categorized using keyword matching",
				logging.F("strategy", s.Name()),
				logging.F(logging.FieldPurchaseID, p.ID),
				logging.F("keyword", kw),
				logging.F(logging.FieldCategory, rule.Name))
			return rule.Name, true, nil
		}
	}
	return "", false, nil
}
