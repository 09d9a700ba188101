// Package container provides dependency injection for the purchase-ledger application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"

	"fjacquet/purchase-ledger/internal/allegroparser"
	"fjacquet/purchase-ledger/internal/categorizer"
	"fjacquet/purchase-ledger/internal/config"
	"fjacquet/purchase-ledger/internal/exchange"
	"fjacquet/purchase-ledger/internal/fileutils"
	"fjacquet/purchase-ledger/internal/ingest"
	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/reconcile"
	"fjacquet/purchase-ledger/internal/registry"
	"fjacquet/purchase-ledger/internal/store"
)

const memoryDatabase = ":memory:"

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger      logging.Logger
	config      *config.Config
	store       *store.SQLiteStore
	registry    *registry.Registry
	engine      *reconcile.Engine
	aiClient    *categorizer.GeminiClient
	categorizer *categorizer.Categorizer
	converter   *exchange.Converter
	service     *ingest.Service
	fetcher     *allegroparser.Fetcher
}

// NewContainer creates and wires all application dependencies.
// This is the main entry point for dependency injection in the application.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Create logger first as it's needed by other components
	logger := config.ConfigureLoggingFromConfig(cfg)

	if cfg.Database.Path != memoryDatabase {
		if dir := filepath.Dir(cfg.Database.Path); dir != "." {
			if err := fileutils.EnsureDirectoryExists(dir); err != nil {
				return nil, fmt.Errorf("failed to prepare database directory: %w", err)
			}
		}
	}
	db, err := store.OpenSQLite(ctx, cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	reg := registry.Default()
	engine := reconcile.NewEngine(db, logger,
		reconcile.WithProgressInterval(cfg.Import.ProgressInterval))

	cat, aiClient, err := newCategorizer(ctx, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	rates := exchange.NewCachedRateSource(
		exchange.NewHTTPRateSource(
			&http.Client{Timeout: time.Duration(cfg.Currency.TimeoutSeconds) * time.Second},
			cfg.Currency.APIURL,
			float64(cfg.Currency.RequestsPerSecond),
			logger,
		),
		time.Duration(cfg.Currency.CacheTTLMinutes)*time.Minute,
	)

	service := ingest.NewService(reg, engine, logger,
		ingest.WithCategorizer(cat),
		ingest.WithMapper(ingest.NewMapper(logger, cfg.Import.ConcurrencyThreshold)),
	)

	var fetcher *allegroparser.Fetcher
	if cfg.Allegro.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Allegro.Token, TokenType: "Bearer"})
		fetcher = allegroparser.NewOAuthFetcher(ctx, ts, cfg.Allegro.APIURL, cfg.Allegro.PageSize, logger)
	}

	logger.Debug("Container initialized successfully",
		logging.Field{Key: "providers_count", Value: len(reg.List())},
		logging.Field{Key: "strategies", Value: cat.Strategies()},
		logging.Field{Key: "ai_enabled", Value: aiClient != nil},
		logging.Field{Key: "allegro_fetch", Value: fetcher != nil})

	return &Container{
		logger:      logger,
		config:      cfg,
		store:       db,
		registry:    reg,
		engine:      engine,
		aiClient:    aiClient,
		categorizer: cat,
		converter:   exchange.NewConverter(rates, logger),
		service:     service,
		fetcher:     fetcher,
	}, nil
}

// newCategorizer assembles the strategy chain: keyword rules first, then the
// AI client when it is enabled and rules name at least one category.
func newCategorizer(ctx context.Context, cfg *config.Config, logger logging.Logger) (*categorizer.Categorizer, *categorizer.GeminiClient, error) {
	rules, err := categorizer.LoadRules(cfg.Categorization.RulesFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load category rules: %w", err)
	}

	strategies := []categorizer.Strategy{categorizer.NewKeywordStrategy(rules, logger)}

	var client *categorizer.GeminiClient
	if cfg.AI.Enabled {
		client, err = categorizer.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create AI client: %w", err)
		}
		strategies = append(strategies, categorizer.NewAIStrategy(client, categorizer.Names(rules), logger))
		logger.Info("AI categorization enabled")
	}

	return categorizer.New(logger, strategies...), client, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the purchase and tag store.
func (c *Container) GetStore() store.Store {
	return c.store
}

// GetRegistry returns the provider registry.
func (c *Container) GetRegistry() *registry.Registry {
	return c.registry
}

// GetEngine returns the reconciliation engine bound to the store.
func (c *Container) GetEngine() *reconcile.Engine {
	return c.engine
}

// GetCategorizer returns the container's categorizer instance.
func (c *Container) GetCategorizer() *categorizer.Categorizer {
	return c.categorizer
}

// GetConverter returns the currency converter.
func (c *Container) GetConverter() *exchange.Converter {
	return c.converter
}

// GetService returns the ingest service.
func (c *Container) GetService() *ingest.Service {
	return c.service
}

// GetAllegroFetcher returns the remote Allegro fetcher, or an error when no
// token is configured.
func (c *Container) GetAllegroFetcher() (*allegroparser.Fetcher, error) {
	if c.fetcher == nil {
		return nil, fmt.Errorf("ALLEGRO_TOKEN not set")
	}
	return c.fetcher, nil
}

// Close releases the store and the AI client.
func (c *Container) Close() error {
	if c.aiClient != nil {
		if err := c.aiClient.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close AI client")
		}
	}
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	c.logger.Debug("Container closed")
	return nil
}
