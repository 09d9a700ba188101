// Package store persists purchases and their tag assignments.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/purchase-ledger/internal/models"
)

// ErrNotFound is returned by UpdatePurchase for an unknown id.
var ErrNotFound = errors.New("purchase not found")

// Operation names reported in StoreError and used for failure injection.
const (
	OpGet          = "get"
	OpList         = "list"
	OpByProvider   = "by_provider"
	OpByDedupKey   = "by_dedup_key"
	OpAdd          = "add"
	OpBulkAdd      = "bulk_add"
	OpBulkPut      = "bulk_put"
	OpUpdate       = "update"
	OpDelete       = "delete"
	OpDeleteByProv = "delete_by_provider"
	OpClear        = "clear"
	OpAssignTag    = "assign_tag"
	OpTags         = "tags"
	OpDeleteTags   = "delete_tags"
	OpClearTags    = "clear_tags"
)

// PurchaseStore is the keyed record store the reconciliation engine and the
// commands work against.
type PurchaseStore interface {
	GetPurchase(ctx context.Context, id string) (models.Purchase, bool, error)
	ListPurchases(ctx context.Context) ([]models.Purchase, error)
	PurchasesByProvider(ctx context.Context, provider models.ProviderID) ([]models.Purchase, error)
	PurchaseByDedupKey(ctx context.Context, key models.DedupKey) (models.Purchase, bool, error)
	AddPurchase(ctx context.Context, p models.Purchase) error
	BulkAddPurchases(ctx context.Context, ps []models.Purchase) error
	BulkPutPurchases(ctx context.Context, ps []models.Purchase) error
	UpdatePurchase(ctx context.Context, id string, patch Patch) error
	DeletePurchase(ctx context.Context, id string) error
	// DeletePurchasesByProvider returns the ids it removed.
	DeletePurchasesByProvider(ctx context.Context, provider models.ProviderID) ([]string, error)
	ClearPurchases(ctx context.Context) error
}

// TagStore holds tag assignments keyed by purchase id.
type TagStore interface {
	AssignTag(ctx context.Context, a models.TagAssignment) error
	TagsForPurchase(ctx context.Context, purchaseID string) ([]string, error)
	DeleteTagAssignments(ctx context.Context, purchaseIDs ...string) error
	ClearTagAssignments(ctx context.Context) error
}

// Store is the full persistence surface.
type Store interface {
	PurchaseStore
	TagStore
	Close() error
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title             *string
	Price             *decimal.Decimal
	Currency          *string
	PurchaseDate      *time.Time
	ImageURL          *string
	CategoryName      *string
	OriginalURL       *string
	RawData           map[string]interface{}
	ConvertedPrice    *decimal.NullDecimal
	ConvertedCurrency *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Price == nil && p.Currency == nil && p.PurchaseDate == nil &&
		p.ImageURL == nil && p.CategoryName == nil && p.OriginalURL == nil && p.RawData == nil &&
		p.ConvertedPrice == nil && p.ConvertedCurrency == nil
}

// Fields lists the names of the fields the patch sets, for logging.
func (p Patch) Fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.Title != nil, "title")
	add(p.Price != nil, "price")
	add(p.Currency != nil, "currency")
	add(p.PurchaseDate != nil, "purchaseDate")
	add(p.ImageURL != nil, "imageUrl")
	add(p.CategoryName != nil, "categoryName")
	add(p.OriginalURL != nil, "originalUrl")
	add(p.RawData != nil, "rawData")
	add(p.ConvertedPrice != nil, "convertedPrice")
	add(p.ConvertedCurrency != nil, "convertedCurrency")
	return out
}

// Apply writes the patch onto dst.
func (p Patch) Apply(dst *models.Purchase) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Currency != nil {
		dst.Currency = *p.Currency
	}
	if p.PurchaseDate != nil {
		dst.PurchaseDate = p.PurchaseDate.UTC()
	}
	if p.ImageURL != nil {
		dst.ImageURL = *p.ImageURL
	}
	if p.CategoryName != nil {
		dst.CategoryName = *p.CategoryName
	}
	if p.OriginalURL != nil {
		dst.OriginalURL = *p.OriginalURL
	}
	if p.RawData != nil {
		dst.RawData = copyRaw(p.RawData)
	}
	if p.ConvertedPrice != nil {
		dst.ConvertedPrice = *p.ConvertedPrice
	}
	if p.ConvertedCurrency != nil {
		dst.ConvertedCurrency = *p.ConvertedCurrency
	}
}

func copyRaw(raw map[string]interface{}) map[string]interface{} {
	if raw == nil {
		return nil
	}
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out
}
