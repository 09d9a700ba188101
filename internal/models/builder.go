package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseBuilder assembles a Purchase from mapped provider fields. The first
// failure sticks and is returned by Build.
type PurchaseBuilder struct {
	p                Purchase
	fallbackCurrency string
	err              error
}

// NewPurchaseBuilder starts a purchase for the provider. fallbackCurrency is
// used when no currency was detected in the source.
func NewPurchaseBuilder(provider ProviderID, fallbackCurrency string) *PurchaseBuilder {
	return &PurchaseBuilder{
		p: Purchase{
			ProviderID: provider,
			Price:      decimal.Zero,
		},
		fallbackCurrency: fallbackCurrency,
	}
}

// WithItemKey sets the provider item id from the non-empty parts.
func (b *PurchaseBuilder) WithItemKey(parts ...string) *PurchaseBuilder {
	if b.err != nil {
		return b
	}
	b.p.ProviderItemID = ItemKey(parts...)
	return b
}

func (b *PurchaseBuilder) WithTitle(title string) *PurchaseBuilder {
	if b.err != nil {
		return b
	}
	b.p.Title = strings.TrimSpace(title)
	return b
}

// WithPrice sets the line total. An empty currency leaves the fallback in place.
func (b *PurchaseBuilder) WithPrice(amount decimal.Decimal, currency string) *PurchaseBuilder {
	if b.err != nil {
		return b
	}
	if amount.IsNegative() {
		b.err = ErrNegativePrice
		return b
	}
	b.p.Price = amount
	b.p.Currency = strings.ToUpper(strings.TrimSpace(currency))
	return b
}

func (b *PurchaseBuilder) WithPurchaseDate(date time.Time) *PurchaseBuilder {
	if b.err != nil {
		return b
	}
	b.p.PurchaseDate = date.UTC()
	return b
}

func (b *PurchaseBuilder) WithImageURL(url string) *PurchaseBuilder {
	if b.err != nil {
		return b
	}
	b.p.ImageURL = strings.TrimSpace(url)
	return b
}

func (b *PurchaseBuilder) WithCategory(name string) *PurchaseBuilder {
	if b.err != nil {
		return b
	}
	b.p.CategoryName = strings.TrimSpace(name)
	return b
}

func (b *PurchaseBuilder) WithOriginalURL(url string) *PurchaseBuilder {
	if b.err != nil {
		return b
	}
	b.p.OriginalURL = strings.TrimSpace(url)
	return b
}

// WithRaw stores a side-channel value. Nil values and blank strings are dropped.
func (b *PurchaseBuilder) WithRaw(key string, value interface{}) *PurchaseBuilder {
	if b.err != nil || value == nil {
		return b
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return b
	}
	if b.p.RawData == nil {
		b.p.RawData = make(map[string]interface{})
	}
	b.p.RawData[key] = value
	return b
}

func (b *PurchaseBuilder) WithImportedAt(t time.Time) *PurchaseBuilder {
	if b.err != nil {
		return b
	}
	b.p.ImportedAt = t.UTC()
	return b
}

// Build validates the accumulated fields and derives the purchase id.
func (b *PurchaseBuilder) Build() (Purchase, error) {
	if b.err != nil {
		return Purchase{}, b.err
	}
	if b.p.Title == "" {
		return Purchase{}, ErrMissingTitle
	}
	if b.p.ProviderItemID == "" {
		return Purchase{}, ErrMissingItemID
	}
	if b.p.Currency == "" {
		b.p.Currency = strings.ToUpper(b.fallbackCurrency)
	}
	if b.p.Currency == "" {
		return Purchase{}, ErrMissingCurrency
	}
	b.p.ID = PurchaseID(b.p.ProviderID, b.p.ProviderItemID)
	return b.p, nil
}
