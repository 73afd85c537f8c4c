package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-level configuration
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// Input / output locations
	Data DataConfig

	// Backtest defaults (run files and flags override these)
	Benchmark    string
	RiskFreeRate float64
	PriceWorkers int

	// Optional persistence
	Database DatabaseConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig

	// API (serve command)
	APIPort string

	// Logging
	LogLevel  string
	LogFormat string
}

// DataConfig holds the on-disk locations consumed and produced by a run
type DataConfig struct {
	SignalsDir    string
	PricesDir     string
	MarketCapFile string
	OutputDir     string
}

// DatabaseConfig holds PostgreSQL configuration for the results sink
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a Postgres sink was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// SQLiteConfig holds the results store location
type SQLiteConfig struct {
	Path string
}

// Enabled reports whether the SQLite results store was configured
func (s SQLiteConfig) Enabled() bool {
	return s.Path != ""
}

// RedisConfig holds Redis configuration for the price series cache
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	TTL      time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Data: DataConfig{
			SignalsDir:    getEnv("SIGNALS_DIR", "results/signals"),
			PricesDir:     getEnv("PRICES_DIR", "data/prices"),
			MarketCapFile: getEnv("MARKETCAP_FILE", ""),
			OutputDir:     getEnv("OUTPUT_DIR", "results/backtests"),
		},

		Benchmark:    getEnv("BENCHMARK", "NSEI"),
		RiskFreeRate: getEnvAsFloat("RISK_FREE_RATE", 0),
		PriceWorkers: getEnvAsInt("PRICE_WORKERS", 8),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 4),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", ""),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			TTL:      getEnvAsDuration("REDIS_TTL", "24h"),
		},

		APIPort: getEnv("API_PORT", "8090"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks value ranges; every location has a usable default
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.PriceWorkers < 1 {
		return fmt.Errorf("PRICE_WORKERS must be >= 1, got %d", c.PriceWorkers)
	}

	if c.RiskFreeRate < 0 || c.RiskFreeRate >= 1 {
		return fmt.Errorf("RISK_FREE_RATE must be in [0, 1), got %v", c.RiskFreeRate)
	}

	if c.Benchmark == "" {
		return fmt.Errorf("BENCHMARK must not be empty")
	}

	return nil
}

// loadEnvFile tries to load .env from the working directory, then next to the binary
func loadEnvFile() {
	paths := []string{".env"}

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
