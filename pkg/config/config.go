package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Upstream services
	Discovery DiscoveryConfig
	Trade     TradeConfig

	// Database (order journal, optional)
	Database DatabaseConfig

	// Redis (snapshot cache + rate limiting, optional)
	Redis RedisConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DiscoveryConfig holds discovery service configuration
type DiscoveryConfig struct {
	BaseURL      string
	PushURL      string // WebSocket endpoint for refresh events, empty disables push
	Limit        int    // candidate fetch limit per request
	Strategy     string // squeeze-candidates strategy parameter
	MinScore     float64
	FetchTimeout time.Duration
	Exchange     string // IANA timezone of the exchange clock
}

// TradeConfig holds order execution configuration
type TradeConfig struct {
	BaseURL       string
	CapitalLimit  float64 // max USD deployed per position
	SubmitTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// Journal retention
	JournalRetentionDays int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// Load reads configuration from environment variables.
// This function is the only place os.Getenv is called.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Discovery: DiscoveryConfig{
			BaseURL:      getEnv("DISCOVERY_BASE_URL", ""),
			PushURL:      getEnv("DISCOVERY_PUSH_URL", ""),
			Limit:        getEnvAsInt("DISCOVERY_LIMIT", 50),
			Strategy:     getEnv("DISCOVERY_STRATEGY", "hybrid_v1"),
			MinScore:     getEnvAsFloat("DISCOVERY_MIN_SCORE", 0.25),
			FetchTimeout: getEnvAsDuration("DISCOVERY_FETCH_TIMEOUT", "5s"),
			Exchange:     getEnv("EXCHANGE_TZ", "America/New_York"),
		},

		Trade: TradeConfig{
			BaseURL:       getEnv("TRADE_BASE_URL", ""),
			CapitalLimit:  getEnvAsFloat("TRADE_CAPITAL_LIMIT", 100),
			SubmitTimeout: getEnvAsDuration("TRADE_SUBMIT_TIMEOUT", "10s"),
		},

		Database: DatabaseConfig{
			URL:                  getEnv("DATABASE_URL", ""),
			MaxConns:             getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:             getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime:      getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime:      getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
			JournalRetentionDays: getEnvAsInt("JOURNAL_RETENTION_DAYS", 90),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Discovery.BaseURL == "" {
		return fmt.Errorf("DISCOVERY_BASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Trade.CapitalLimit <= 0 {
		return fmt.Errorf("TRADE_CAPITAL_LIMIT must be positive")
	}

	if c.Discovery.MinScore < 0 || c.Discovery.MinScore > 1 {
		return fmt.Errorf("DISCOVERY_MIN_SCORE must be within [0,1]")
	}

	return nil
}

// JournalEnabled reports whether the order journal should be wired up
func (c *Config) JournalEnabled() bool {
	return c.Database.URL != ""
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
