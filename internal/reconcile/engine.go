// Package reconcile merges freshly mapped purchases into the store without
// creating duplicates.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/store"
)

const (
	DefaultProgressInterval = 50
	DefaultFlushSize        = 500
)

// Outcome is what happened to one candidate.
type Outcome int

const (
	OutcomeAdded Outcome = iota
	OutcomeSkipped
	OutcomeUpdated
	OutcomeEnriched
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdded:
		return "added"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeUpdated:
		return "updated"
	case OutcomeEnriched:
		return "enriched"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Stats is a progress snapshot. Processed counts candidates decided so far.
type Stats struct {
	Total     int
	Processed int
	Added     int
	Skipped   int
	Updated   int
	Enriched  int
}

func (s *Stats) record(o Outcome) {
	s.Processed++
	switch o {
	case OutcomeAdded:
		s.Added++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeEnriched:
		s.Enriched++
	}
}

// Observer receives progress snapshots. It is called synchronously on the
// reconciling goroutine and must return promptly.
type Observer func(Stats)

// Option configures an Engine.
type Option func(*Engine)

// WithProgressInterval reports progress every n candidates (and always on the
// last one). n < 1 means every candidate.
func WithProgressInterval(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.progressEvery = n
	}
}

// WithFlushSize sets how many inserts are buffered before a bulk write.
func WithFlushSize(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.flushSize = n
	}
}

// Engine reconciles candidate batches against a store. One Reconcile call
// processes its batch strictly in order; concurrent calls on the same store
// must be serialized by the caller.
type Engine struct {
	store         store.Store
	logger        logging.Logger
	progressEvery int
	flushSize     int
}

// NewEngine creates an engine over s.
func NewEngine(s store.Store, logger logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:         s,
		logger:        logging.OrDefault(logger),
		progressEvery: DefaultProgressInterval,
		flushSize:     DefaultFlushSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// entry is an indexed record. Pending entries are buffered inserts not yet
// written to the store.
type entry struct {
	purchase models.Purchase
	pending  int // index into batch.inserts, or -1 when stored
}

type batch struct {
	index   map[models.DedupKey]*entry
	inserts []models.Purchase
}

// Reconcile merges candidates into the store and returns the final counts.
// Per-record problems are logged and counted as skips; only store failures
// and context cancellation abort the batch. Records written before the
// abort stay written.
func (e *Engine) Reconcile(ctx context.Context, candidates []models.Purchase, observe Observer) (Stats, error) {
	stats := Stats{Total: len(candidates)}
	start := time.Now()

	b, err := e.preload(ctx, candidates)
	if err != nil {
		return stats, err
	}

	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			if ferr := e.flush(context.WithoutCancel(ctx), b); ferr != nil {
				return stats, ferr
			}
			return stats, err
		}

		outcome, err := e.decide(ctx, b, c)
		if err != nil {
			return stats, err
		}
		stats.record(outcome)

		if len(b.inserts) >= e.flushSize {
			if err := e.flush(ctx, b); err != nil {
				return stats, err
			}
		}

		if observe != nil && (stats.Processed%e.progressEvery == 0 || i == len(candidates)-1) {
			observe(stats)
		}
	}

	if err := e.flush(ctx, b); err != nil {
		return stats, err
	}

	e.logger.Info("Reconciliation completed",
		logging.F(logging.FieldTotal, stats.Total),
		logging.F(logging.FieldAdded, stats.Added),
		logging.F(logging.FieldUpdated, stats.Updated),
		logging.F(logging.FieldEnriched, stats.Enriched),
		logging.F(logging.FieldSkipped, stats.Skipped),
		logging.F(logging.FieldDuration, time.Since(start).String()))
	return stats, nil
}

// preload loads every stored record of each provider present in the batch,
// once per provider.
func (e *Engine) preload(ctx context.Context, candidates []models.Purchase) (*batch, error) {
	b := &batch{index: make(map[models.DedupKey]*entry)}
	seen := make(map[models.ProviderID]bool)
	for _, c := range candidates {
		if c.ProviderID == "" || seen[c.ProviderID] {
			continue
		}
		seen[c.ProviderID] = true

		existing, err := e.store.PurchasesByProvider(ctx, c.ProviderID)
		if err != nil {
			return nil, fmt.Errorf("load existing %s purchases: %w", c.ProviderID, err)
		}
		for _, p := range existing {
			b.index[p.Key()] = &entry{purchase: p, pending: -1}
		}
		e.logger.Debug("Loaded existing purchases",
			logging.F(logging.FieldProvider, string(c.ProviderID)),
			logging.F(logging.FieldCount, len(existing)))
	}
	return b, nil
}

func (e *Engine) decide(ctx context.Context, b *batch, c models.Purchase) (Outcome, error) {
	if err := c.Validate(); err != nil {
		e.logger.Warn("Skipping malformed candidate",
			logging.F(logging.FieldPurchaseID, c.ID),
			logging.F(logging.FieldItemID, c.ProviderItemID),
			logging.F(logging.FieldReason, err.Error()))
		return OutcomeSkipped, nil
	}

	key := c.Key()
	existing, ok := b.index[key]
	if !ok {
		b.index[key] = &entry{purchase: c.Clone(), pending: len(b.inserts)}
		b.inserts = append(b.inserts, c.Clone())
		return OutcomeAdded, nil
	}

	var (
		patch   store.Patch
		outcome Outcome
	)
	if existing.purchase.SameIdentity(c) {
		patch = enrichPatch(existing.purchase, c)
		outcome = OutcomeEnriched
		if patch.IsEmpty() {
			return OutcomeSkipped, nil
		}
	} else {
		patch = updatePatch(c)
		outcome = OutcomeUpdated
	}

	if existing.pending >= 0 {
		patch.Apply(&b.inserts[existing.pending])
	} else if err := e.store.UpdatePurchase(ctx, existing.purchase.ID, patch); err != nil {
		return outcome, err
	}
	patch.Apply(&existing.purchase)

	e.logger.Debug("Reconciled purchase",
		logging.F(logging.FieldPurchaseID, existing.purchase.ID),
		logging.F(logging.FieldStatus, outcome.String()),
		logging.F("fields", patch.Fields()))
	return outcome, nil
}

func (e *Engine) flush(ctx context.Context, b *batch) error {
	if len(b.inserts) == 0 {
		return nil
	}
	if err := e.store.BulkAddPurchases(ctx, b.inserts); err != nil {
		return err
	}
	for _, p := range b.inserts {
		b.index[p.Key()].pending = -1
	}
	e.logger.Debug("Flushed new purchases", logging.F(logging.FieldCount, len(b.inserts)))
	b.inserts = b.inserts[:0]
	return nil
}

// enrichPatch copies the optional fields the candidate has and the existing
// record lacks. Populated fields are never overwritten.
func enrichPatch(existing, c models.Purchase) store.Patch {
	var patch store.Patch
	if existing.ImageURL == "" && c.ImageURL != "" {
		patch.ImageURL = strPtr(c.ImageURL)
	}
	if existing.CategoryName == "" && c.CategoryName != "" {
		patch.CategoryName = strPtr(c.CategoryName)
	}
	if existing.OriginalURL == "" && c.OriginalURL != "" {
		patch.OriginalURL = strPtr(c.OriginalURL)
	}
	if !existing.HasRawData() && c.HasRawData() {
		patch.RawData = c.RawData
	}
	return patch
}

// updatePatch overwrites every comparable field with the candidate's,
// including optional fields the candidate leaves empty. Any converted price
// is cleared because it no longer matches.
func updatePatch(c models.Purchase) store.Patch {
	price := c.Price
	date := c.PurchaseDate
	raw := c.RawData
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return store.Patch{
		Title:             strPtr(c.Title),
		Price:             &price,
		Currency:          strPtr(c.Currency),
		PurchaseDate:      &date,
		ImageURL:          strPtr(c.ImageURL),
		CategoryName:      strPtr(c.CategoryName),
		OriginalURL:       strPtr(c.OriginalURL),
		RawData:           raw,
		ConvertedPrice:    &decimal.NullDecimal{},
		ConvertedCurrency: strPtr(""),
	}
}

func strPtr(s string) *string { return &s }
