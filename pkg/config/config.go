package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Markets
	DefaultLiquidity float64 // LMSR b parameter for new markets
	QuoteCacheTTL    time.Duration
	QuoteCacheItems  int

	// Settlement collaborator
	SettlementURL     string // empty disables payout execution
	SettlementTimeout time.Duration
	SettlementRPS     float64
	SettlementBurst   int

	// Oracle
	AutoPlayFile string // path to a YAML schedule; empty disables automation
	GameID       string

	// Storage
	StorageMode  string // "postgres", "sqlite" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
	SQLitePath   string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Market defaults
		DefaultLiquidity: getFloat64OrDefault("MARKET_DEFAULT_LIQUIDITY", 100.0),
		QuoteCacheTTL:    getDurationOrDefault("QUOTE_CACHE_TTL", 2*time.Second),
		QuoteCacheItems:  getIntOrDefault("QUOTE_CACHE_MAX_ITEMS", 10000),

		// Settlement defaults
		SettlementURL:     os.Getenv("SETTLEMENT_URL"),
		SettlementTimeout: getDurationOrDefault("SETTLEMENT_TIMEOUT", 10*time.Second),
		SettlementRPS:     getFloat64OrDefault("SETTLEMENT_RPS", 20.0),
		SettlementBurst:   getIntOrDefault("SETTLEMENT_BURST", 5),

		// Oracle defaults
		AutoPlayFile: os.Getenv("AUTOPLAY_FILE"),
		GameID:       getEnvOrDefault("GAME_ID", "exhibition"),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "fullcount"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "fullcount123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "fullcount"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		SQLitePath:   getEnvOrDefault("SQLITE_PATH", "fullcount.db"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.DefaultLiquidity <= 0 {
		return fmt.Errorf("MARKET_DEFAULT_LIQUIDITY must be positive, got %f", c.DefaultLiquidity)
	}

	switch c.StorageMode {
	case "postgres", "sqlite", "console":
	default:
		return fmt.Errorf("STORAGE_MODE must be 'postgres', 'sqlite' or 'console', got %q", c.StorageMode)
	}

	if c.StorageMode == "sqlite" && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH cannot be empty with sqlite storage")
	}

	if c.SettlementRPS <= 0 {
		return fmt.Errorf("SETTLEMENT_RPS must be positive, got %f", c.SettlementRPS)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
