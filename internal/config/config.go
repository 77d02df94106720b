package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"muni-reconciler/internal/logger"
)

// Config carries the environment-driven settings of the reconciler.
type Config struct {
	// Provider is the settlement network's code, used on Payment rows and
	// inside idempotency keys.
	Provider string

	// CompanyID is the 4-digit id the collection network assigned to the
	// municipality; it leads every barcode.
	CompanyID string

	LogLevel  string
	LogFormat string
	LogOutput string
}

// Load reads configuration from the environment, with an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Provider:  getEnv("SETTLEMENT_PROVIDER", "PAGOFACIL"),
		CompanyID: getEnv("COLLECTION_COMPANY_ID", "0000"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogOutput: getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Provider == "" {
		return fmt.Errorf("SETTLEMENT_PROVIDER is required")
	}
	if len(c.CompanyID) != 4 {
		return fmt.Errorf("COLLECTION_COMPANY_ID must be exactly 4 digits, got %q", c.CompanyID)
	}
	for i := 0; i < len(c.CompanyID); i++ {
		if c.CompanyID[i] < '0' || c.CompanyID[i] > '9' {
			return fmt.Errorf("COLLECTION_COMPANY_ID must be exactly 4 digits, got %q", c.CompanyID)
		}
	}
	return nil
}

// LoggerConfig returns the logging section of the configuration.
func (c *Config) LoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
