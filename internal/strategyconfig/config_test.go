package strategyconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
meta:
  strategy_id: topn_cap_weekly
  version: "1"
cadence:
  name: weekly
  cutoff: "2025-06-30"
policy:
  name: top_n_market_cap
  top_n: 10
  confidence_threshold: 5
  confidence_filter: true
  weighting: market_cap
  rank_by: confidence
benchmark: NSEI
risk:
  risk_free_rate: 0.065
bootstrap:
  trials: 200
  seed: 7
schedule:
  cron: "0 0 6 * * 1"
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, data, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	assert.Equal(t, "topn_cap_weekly", cfg.Meta.StrategyID)
	assert.Equal(t, "weekly", cfg.Cadence.Name)
	assert.Equal(t, 52, cfg.AnnualizationFactor())
	assert.Equal(t, PolicyTopNMarketCap, cfg.Policy.Name)
	assert.Equal(t, RankByConfidence, cfg.Policy.RankBy)
	assert.Equal(t, 0.065, cfg.Risk.RiskFreeRate)
	assert.Equal(t, int64(7), cfg.Bootstrap.Seed)

	// defaults filled
	assert.Equal(t, DefaultStopLoss, cfg.Policy.StopLoss)
	assert.Equal(t, DefaultVolatilityPower, cfg.Policy.VolatilityPower)

	// 해시 생성
	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	// 동일 설정 → 동일 해시
	hash2, _ := Hash(cfg)
	assert.Equal(t, hash, hash2)

	cfg.Policy.TopN = 5
	hash3, _ := Hash(cfg)
	assert.NotEqual(t, hash, hash3)
}

func TestParseUnknownField(t *testing.T) {
	_, err := Parse([]byte("policy:\n  name: buy_all\n  topn: 3\n"))
	assert.Error(t, err, "typo must fail under KnownFields")
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("policy:\n  name: carry_hold\n"))
	require.NoError(t, err)
	assert.Equal(t, "carry_hold", cfg.Meta.StrategyID)
	assert.Equal(t, "monthly", cfg.Cadence.Name)
	assert.Equal(t, 12, cfg.AnnualizationFactor())
	assert.Equal(t, DefaultTopN, cfg.Policy.TopN)
	assert.Equal(t, DefaultTrials, cfg.Bootstrap.Trials)
}

func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"ok", func(*Config) {}, ""},
		{"cadence", func(c *Config) { c.Cadence.Name = "daily" }, "cadence.name"},
		{"negative ppy", func(c *Config) { c.Cadence.PeriodsPerYear = -1 }, "cadence.periods_per_year"},
		{"policy", func(c *Config) { c.Policy.Name = "momentum" }, "policy.name"},
		{"top_n", func(c *Config) { c.Policy.TopN = -2 }, "policy.top_n"},
		{"threshold", func(c *Config) { c.Policy.ConfidenceThreshold = 11 }, "policy.confidence_threshold"},
		{"weighting", func(c *Config) { c.Policy.Weighting = "vol" }, "policy.weighting"},
		{"rank_by", func(c *Config) { c.Policy.RankBy = "volume" }, "policy.rank_by"},
		{"stop_loss", func(c *Config) { c.Policy.StopLoss = 1.5 }, "policy.stop_loss"},
		{"vol power", func(c *Config) { c.Policy.VolatilityPower = -1 }, "policy.volatility_power"},
		{"rf", func(c *Config) { c.Risk.RiskFreeRate = 6.5 }, "risk.risk_free_rate"},
		{"trials", func(c *Config) { c.Bootstrap.Trials = -1 }, "bootstrap.trials"},
		{"cron", func(c *Config) { c.Schedule.Cron = "every monday" }, "schedule.cron"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			var verr ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	cfg := validConfig()
	assert.Empty(t, Warn(cfg))

	cfg.Cadence.PeriodsPerYear = 64
	cfg.Policy.Name = PolicyTopNMarketCap
	cfg.Policy.RankBy = RankByConfidence
	cfg.Risk.RiskFreeRate = 0.5

	codes := make([]string, 0)
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	assert.ElementsMatch(t, []string{"ANNUALIZATION_OVERRIDE", "UNFILTERED_CONFIDENCE_RANK", "HIGH_RISK_FREE_RATE"}, codes)
}
