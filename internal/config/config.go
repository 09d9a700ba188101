package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"

	"fjacquet/purchase-ledger/internal/logging"
)

var once sync.Once

// LoadEnv loads environment variables from a .env file in the working
// directory or its parent. It runs at most once per process; later calls are
// no-ops. Variables already present in the environment are not overridden.
func LoadEnv(logger logging.Logger) {
	once.Do(func() {
		logger = logging.OrDefault(logger)
		envFile, ok := findEnvFile(".env", filepath.Join("..", ".env"))
		if !ok {
			logger.Debug("No .env file found, using environment variables")
			return
		}

		if err := godotenv.Load(envFile); err != nil {
			logger.WithError(err).Warn("Error loading .env file",
				logging.Field{Key: logging.FieldFile, Value: envFile})
			return
		}
		logger.Debug("Loaded environment variables",
			logging.Field{Key: logging.FieldFile, Value: envFile})
	})
}

func findEnvFile(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, true
		}
	}
	return "", false
}

// GetEnv retrieves an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}
