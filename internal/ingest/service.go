// Package ingest is the entry point that turns an export file into stored
// purchases: validate, parse, categorize, reconcile.
package ingest

import (
	"context"
	"time"

	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/parser"
	"fjacquet/purchase-ledger/internal/parsererror"
	"fjacquet/purchase-ledger/internal/reconcile"
	"fjacquet/purchase-ledger/internal/registry"
)

// CategoryApplier fills missing categories in place and returns how many it
// filled.
type CategoryApplier interface {
	Apply(ctx context.Context, purchases []models.Purchase) int
}

// ParseResult is the mapped content of one file.
type ParseResult struct {
	Provider  models.ProviderID
	Format    parser.Format
	Records   int
	Rejected  int
	Purchases []models.Purchase
}

// ImportResult adds the reconciliation counts to ParseResult.
type ImportResult struct {
	ParseResult
	Categorized int
	Stats       reconcile.Stats
}

// Service wires the registry, the mapper, the categorizer and the engine.
type Service struct {
	registry    *registry.Registry
	engine      *reconcile.Engine
	mapper      *Mapper
	categorizer CategoryApplier
	logger      logging.Logger
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCategorizer enables category inference before reconciliation.
func WithCategorizer(c CategoryApplier) Option {
	return func(s *Service) { s.categorizer = c }
}

// WithClock overrides the time source used for importedAt and date fallbacks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMapper replaces the default mapper.
func WithMapper(m *Mapper) Option {
	return func(s *Service) { s.mapper = m }
}

// NewService creates a Service.
func NewService(reg *registry.Registry, engine *reconcile.Engine, logger logging.Logger, opts ...Option) *Service {
	logger = logging.OrDefault(logger)
	s := &Service{
		registry: reg,
		engine:   engine,
		mapper:   NewMapper(logger, DefaultConcurrencyThreshold),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the provider named by id, or detects it from the file
// content when id is empty.
func (s *Service) Resolve(id string, src parser.Source) (parser.Provider, error) {
	if id == "" {
		p, err := s.registry.Detect(src)
		if err != nil {
			return parser.Provider{}, err
		}
		s.logger.Info("Detected provider",
			logging.F(logging.FieldFile, src.Name),
			logging.F(logging.FieldProvider, string(p.ID)))
		return p, nil
	}
	return s.registry.LookupString(id)
}

// Validate returns the human-readable problems found in src; none means the
// file can be imported. The error is only set for an unknown provider.
func (s *Service) Validate(id string, src parser.Source) ([]string, error) {
	p, err := s.Resolve(id, src)
	if err != nil {
		return nil, err
	}
	return p.Validate(src), nil
}

// Parse validates and maps src without touching the store.
func (s *Service) Parse(ctx context.Context, id string, src parser.Source) (ParseResult, error) {
	p, err := s.Resolve(id, src)
	if err != nil {
		return ParseResult{}, err
	}
	if problems := p.Validate(src); len(problems) > 0 {
		return ParseResult{}, &parsererror.ValidationError{Provider: string(p.ID), File: src.Name, Problems: problems}
	}

	d, recs, err := p.Decode(src)
	if err != nil {
		return ParseResult{}, err
	}

	purchases, rejected, err := s.mapper.Map(ctx, d, recs, s.now().UTC())
	if err != nil {
		return ParseResult{}, err
	}

	res := ParseResult{
		Provider:  p.ID,
		Format:    d.Format,
		Records:   len(recs),
		Rejected:  rejected,
		Purchases: purchases,
	}
	s.logger.Info("Parsed export",
		logging.F(logging.FieldFile, src.Name),
		logging.F(logging.FieldProvider, string(p.ID)),
		logging.F(logging.FieldFormat, string(d.Format)),
		logging.F(logging.FieldCount, len(purchases)),
		logging.F(logging.FieldSkipped, rejected))
	return res, nil
}

// Import parses src and merges the result into the store.
func (s *Service) Import(ctx context.Context, id string, src parser.Source, observe reconcile.Observer) (ImportResult, error) {
	parsed, err := s.Parse(ctx, id, src)
	if err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{ParseResult: parsed}
	res.Categorized, res.Stats, err = s.Store(ctx, parsed.Purchases, observe)
	return res, err
}

// Store categorizes and reconciles already mapped purchases, as produced by
// Parse or by a remote fetch.
func (s *Service) Store(ctx context.Context, purchases []models.Purchase, observe reconcile.Observer) (int, reconcile.Stats, error) {
	categorized := 0
	if s.categorizer != nil {
		categorized = s.categorizer.Apply(ctx, purchases)
	}
	stats, err := s.engine.Reconcile(ctx, purchases, observe)
	return categorized, stats, err
}
