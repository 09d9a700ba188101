package models

import (
	"strings"

	"github.com/google/uuid"
)

// ProviderID names a marketplace.
type ProviderID string

const (
	ProviderAmazon     ProviderID = "amazon"
	ProviderAllegro    ProviderID = "allegro"
	ProviderAliExpress ProviderID = "aliexpress"
	ProviderEbay       ProviderID = "ebay"
	ProviderTemu       ProviderID = "temu"
	ProviderOLX        ProviderID = "olx"
)

func (p ProviderID) String() string {
	return string(p)
}

// ParseProviderID normalizes user input ("  eBay ") to a ProviderID.
func ParseProviderID(s string) ProviderID {
	return ProviderID(strings.ToLower(strings.TrimSpace(s)))
}

// idNamespace scopes the name-based UUIDs generated for purchases.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://purchase-ledger/purchases"))

// PurchaseID derives the deterministic identifier of a purchase from its
// provider and provider item id. The same inputs always give the same id.
func PurchaseID(provider ProviderID, providerItemID string) string {
	name := string(provider) + "\x1f" + providerItemID
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}

// ItemKey joins the non-empty parts with ":" to form a provider item id.
func ItemKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ":")
}
