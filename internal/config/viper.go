// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"fjacquet/purchase-ledger/internal/logging"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Database struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"database" yaml:"database"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`

	Import struct {
		ProgressInterval     int `mapstructure:"progress_interval" yaml:"progress_interval"`
		ConcurrencyThreshold int `mapstructure:"concurrency_threshold" yaml:"concurrency_threshold"`
	} `mapstructure:"import" yaml:"import"`

	Currency struct {
		Target            string `mapstructure:"target" yaml:"target"`
		APIURL            string `mapstructure:"api_url" yaml:"api_url"`
		RequestsPerSecond int    `mapstructure:"requests_per_second" yaml:"requests_per_second"`
		CacheTTLMinutes   int    `mapstructure:"cache_ttl_minutes" yaml:"cache_ttl_minutes"`
		TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	} `mapstructure:"currency" yaml:"currency"`

	Categorization struct {
		RulesFile string `mapstructure:"rules_file" yaml:"rules_file"`
	} `mapstructure:"categorization" yaml:"categorization"`

	AI struct {
		Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
		Model   string `mapstructure:"model" yaml:"model"`
		APIKey  string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Allegro struct {
		APIURL   string `mapstructure:"api_url" yaml:"api_url"`
		Token    string `mapstructure:"token" yaml:"-"`
		PageSize int    `mapstructure:"page_size" yaml:"page_size"`
	} `mapstructure:"allegro" yaml:"allegro"`
}

// Delimiter returns the configured CSV delimiter as a rune.
func (c *Config) Delimiter() rune {
	if c == nil || c.CSV.Delimiter == "" {
		return ','
	}
	return []rune(c.CSV.Delimiter)[0]
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return InitializeConfigFile("")
}

// InitializeConfigFile behaves like InitializeConfig but reads configFile
// instead of searching the default locations when it is non-empty.
func InitializeConfigFile(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.purchase-ledger")
		v.AddConfigPath(".purchase-ledger")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("LEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 5. Secrets are read from their conventional, unprefixed names
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY: %w", err)
	}
	if err := v.BindEnv("allegro.token", "ALLEGRO_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind ALLEGRO_TOKEN: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.path", "purchases.db")

	v.SetDefault("csv.delimiter", ",")

	v.SetDefault("import.progress_interval", 50)
	v.SetDefault("import.concurrency_threshold", 1000)

	v.SetDefault("currency.target", "EUR")
	v.SetDefault("currency.api_url", "https://api.frankfurter.app")
	v.SetDefault("currency.requests_per_second", 5)
	v.SetDefault("currency.cache_ttl_minutes", 1440)
	v.SetDefault("currency.timeout_seconds", 10)

	v.SetDefault("categorization.rules_file", "")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.api_key", "")

	v.SetDefault("allegro.api_url", "https://api.allegro.pl")
	v.SetDefault("allegro.token", "")
	v.SetDefault("allegro.page_size", 100)
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if strings.TrimSpace(config.Database.Path) == "" {
		return fmt.Errorf("database.path must not be empty")
	}

	if len([]rune(config.CSV.Delimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	if config.Import.ProgressInterval < 1 {
		return fmt.Errorf("import.progress_interval must be positive, got: %d", config.Import.ProgressInterval)
	}
	if config.Import.ConcurrencyThreshold < 1 {
		return fmt.Errorf("import.concurrency_threshold must be positive, got: %d", config.Import.ConcurrencyThreshold)
	}

	if len(config.Currency.Target) != 3 {
		return fmt.Errorf("currency.target must be a 3-letter ISO code, got: %s", config.Currency.Target)
	}
	if config.Currency.RequestsPerSecond < 1 || config.Currency.RequestsPerSecond > 100 {
		return fmt.Errorf("currency.requests_per_second must be between 1 and 100, got: %d", config.Currency.RequestsPerSecond)
	}
	if config.Currency.CacheTTLMinutes < 0 {
		return fmt.Errorf("currency.cache_ttl_minutes must not be negative, got: %d", config.Currency.CacheTTLMinutes)
	}
	if config.Currency.TimeoutSeconds < 1 || config.Currency.TimeoutSeconds > 300 {
		return fmt.Errorf("currency.timeout_seconds must be between 1 and 300, got: %d", config.Currency.TimeoutSeconds)
	}

	if config.AI.Enabled && config.AI.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
	}

	if config.Allegro.PageSize < 1 || config.Allegro.PageSize > 100 {
		return fmt.Errorf("allegro.page_size must be between 1 and 100, got: %d", config.Allegro.PageSize)
	}

	return nil
}

// ConfigureLoggingFromConfig builds the application logger from the Config
// struct. An invalid level falls back to info.
func ConfigureLoggingFromConfig(config *Config) logging.Logger {
	if config == nil {
		return logging.NewLogrusAdapter("info", "text")
	}
	return logging.NewLogrusAdapter(strings.ToLower(config.Log.Level), strings.ToLower(config.Log.Format))
}
