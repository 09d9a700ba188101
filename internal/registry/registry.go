// Package registry holds the static table of supported marketplaces and
// answers the dispatch queries the ingestion entry points need.
package registry

import (
	"fmt"

	"fjacquet/purchase-ledger/internal/aliexpressparser"
	"fjacquet/purchase-ledger/internal/allegroparser"
	"fjacquet/purchase-ledger/internal/amazonparser"
	"fjacquet/purchase-ledger/internal/ebayparser"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/olxparser"
	"fjacquet/purchase-ledger/internal/parser"
	"fjacquet/purchase-ledger/internal/parsererror"
	"fjacquet/purchase-ledger/internal/temuparser"
)

// Registry is immutable once built.
type Registry struct {
	order []models.ProviderID
	byID  map[models.ProviderID]parser.Provider
}

// New registers providers in the given order. Duplicate ids and providers
// without dialects are rejected.
func New(providers ...parser.Provider) (*Registry, error) {
	r := &Registry{byID: make(map[models.ProviderID]parser.Provider, len(providers))}
	for _, p := range providers {
		if p.ID == "" {
			return nil, fmt.Errorf("provider without id")
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("provider %q registered twice", p.ID)
		}
		if len(p.Dialects) == 0 && p.Supports(parser.CapabilityImport) {
			return nil, fmt.Errorf("provider %q supports import but has no dialect", p.ID)
		}
		r.byID[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return r, nil
}

// Default returns the registry of every built-in provider.
func Default() *Registry {
	r, err := New(
		amazonparser.Provider(),
		allegroparser.Provider(),
		aliexpressparser.Provider(),
		ebayparser.Provider(),
		temuparser.Provider(),
		olxparser.Provider(),
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the provider registered under id.
func (r *Registry) Lookup(id models.ProviderID) (parser.Provider, error) {
	p, ok := r.byID[id]
	if !ok {
		return parser.Provider{}, &parsererror.UnknownProviderError{ID: string(id)}
	}
	return p, nil
}

// LookupString parses s and looks it up.
func (r *Registry) LookupString(s string) (parser.Provider, error) {
	return r.Lookup(models.ParseProviderID(s))
}

// List returns every provider in registration order.
func (r *Registry) List() []parser.Provider {
	out := make([]parser.Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// WithCapability returns the providers supporting c, in registration order.
func (r *Registry) WithCapability(c parser.Capability) []parser.Provider {
	var out []parser.Provider
	for _, id := range r.order {
		if p := r.byID[id]; p.Supports(c) {
			out = append(out, p)
		}
	}
	return out
}

// Detect returns the first import-capable provider that accepts src without
// problems.
func (r *Registry) Detect(src parser.Source) (parser.Provider, error) {
	for _, p := range r.WithCapability(parser.CapabilityImport) {
		if len(p.Validate(src)) == 0 {
			return p, nil
		}
	}
	return parser.Provider{}, &parsererror.ValidationError{
		Provider: "auto",
		File:     src.Name,
		Problems: []string{"no provider recognises this file"},
	}
}
