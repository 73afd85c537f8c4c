package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("BENCHMARK", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "NSEI", cfg.Benchmark)
	assert.Equal(t, 8, cfg.PriceWorkers)
	assert.False(t, cfg.Database.Enabled(), "postgres sink is optional")
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SIGNALS_DIR", "/data/signals/weekly")
	t.Setenv("PRICES_DIR", "/data/prices/weekly")
	t.Setenv("RISK_FREE_RATE", "0.06")
	t.Setenv("PRICE_WORKERS", "16")
	t.Setenv("SQLITE_PATH", "/tmp/runs.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "/data/signals/weekly", cfg.Data.SignalsDir)
	assert.Equal(t, "/data/prices/weekly", cfg.Data.PricesDir)
	assert.InDelta(t, 0.06, cfg.RiskFreeRate, 1e-12)
	assert.Equal(t, 16, cfg.PriceWorkers)
	assert.True(t, cfg.SQLite.Enabled())
}

func TestValidateInvalidEnv(t *testing.T) {
	t.Setenv("ENV", "invalid")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{Env: "development", PriceWorkers: 1, Benchmark: "NSEI"}, true},
		{"zero workers", Config{Env: "development", PriceWorkers: 0, Benchmark: "NSEI"}, false},
		{"negative risk free", Config{Env: "development", PriceWorkers: 2, RiskFreeRate: -0.1, Benchmark: "NSEI"}, false},
		{"empty benchmark", Config{Env: "development", PriceWorkers: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_DURATION", "2h")
	t.Setenv("TEST_INT", "100")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_FLOAT", "not-a-number")

	assert.Equal(t, 2*time.Hour, getEnvAsDuration("TEST_DURATION", "1h"))
	assert.Equal(t, 100, getEnvAsInt("TEST_INT", 50))
	assert.True(t, getEnvAsBool("TEST_BOOL", false))
	assert.Equal(t, 1.5, getEnvAsFloat("TEST_FLOAT", 1.5), "unparseable values fall back to the default")
}
