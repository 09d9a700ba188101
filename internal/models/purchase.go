package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is the canonical, provider-independent record of one purchased
// item. Price is the total paid for the line in major currency units.
type Purchase struct {
	ID             string          `json:"id" yaml:"id"`
	ProviderID     ProviderID      `json:"providerId" yaml:"providerId"`
	ProviderItemID string          `json:"providerItemId" yaml:"providerItemId"`
	Title          string          `json:"title" yaml:"title"`
	Price          decimal.Decimal `json:"price" yaml:"price"`
	Currency       string          `json:"currency" yaml:"currency"`
	PurchaseDate   time.Time       `json:"purchaseDate" yaml:"purchaseDate"`

	ImageURL     string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	CategoryName string `json:"categoryName,omitempty" yaml:"categoryName,omitempty"`
	OriginalURL  string `json:"originalUrl,omitempty" yaml:"originalUrl,omitempty"`

	// RawData keeps provider fields that have no canonical home.
	RawData map[string]interface{} `json:"rawData,omitempty" yaml:"rawData,omitempty"`

	ImportedAt time.Time `json:"importedAt" yaml:"importedAt"`

	// Populated by the currency converter only.
	ConvertedPrice    decimal.NullDecimal `json:"convertedPrice" yaml:"convertedPrice"`
	ConvertedCurrency string              `json:"convertedCurrency,omitempty" yaml:"convertedCurrency,omitempty"`
}

// DedupKey identifies a purchase across imports.
type DedupKey struct {
	ProviderID     ProviderID
	ProviderItemID string
}

func (k DedupKey) String() string {
	return fmt.Sprintf("%s/%s", k.ProviderID, k.ProviderItemID)
}

// Key returns the purchase's dedup key.
func (p Purchase) Key() DedupKey {
	return DedupKey{ProviderID: p.ProviderID, ProviderItemID: p.ProviderItemID}
}

// Money returns the purchase price as a Money value.
func (p Purchase) Money() Money {
	return NewMoney(p.Price, p.Currency)
}

// SameIdentity reports whether the identity fields (title, price, currency
// and purchase date) of p and other match exactly.
func (p Purchase) SameIdentity(other Purchase) bool {
	return p.Title == other.Title &&
		p.Price.Equal(other.Price) &&
		p.Currency == other.Currency &&
		p.PurchaseDate.Equal(other.PurchaseDate)
}

// HasRawData reports whether the side channel carries any field.
func (p Purchase) HasRawData() bool {
	return len(p.RawData) > 0
}

// Validate checks the invariants every stored purchase must satisfy.
func (p Purchase) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return ErrMissingID
	case strings.TrimSpace(string(p.ProviderID)) == "":
		return ErrMissingProvider
	case strings.TrimSpace(p.ProviderItemID) == "":
		return ErrMissingItemID
	case strings.TrimSpace(p.Title) == "":
		return ErrMissingTitle
	case p.Price.IsNegative():
		return ErrNegativePrice
	case p.Currency == "":
		return ErrMissingCurrency
	}
	return nil
}

// Clone returns a copy of p whose RawData map is not shared.
func (p Purchase) Clone() Purchase {
	c := p
	if p.RawData != nil {
		c.RawData = make(map[string]interface{}, len(p.RawData))
		for k, v := range p.RawData {
			c.RawData[k] = v
		}
	}
	return c
}

// TagAssignment links a purchase to a user tag.
type TagAssignment struct {
	PurchaseID string `json:"purchaseId" yaml:"purchaseId"`
	Tag        string `json:"tag" yaml:"tag"`
}
