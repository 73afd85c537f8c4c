package strategyconfig

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Cadence ===
	if cfg.Cadence.Name != "monthly" && cfg.Cadence.Name != "weekly" {
		return ValidationError{"cadence.name", "must be monthly or weekly"}
	}
	if cfg.Cadence.PeriodsPerYear < 0 {
		return ValidationError{"cadence.periods_per_year", "must be >= 0"}
	}

	// === Policy ===
	p := cfg.Policy
	if !knownPolicy(p.Name) {
		return ValidationError{"policy.name", fmt.Sprintf("unknown policy %q", p.Name)}
	}
	if p.TopN < 1 {
		return ValidationError{"policy.top_n", "must be >= 1"}
	}
	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 10 {
		return ValidationError{"policy.confidence_threshold", "must be in range [0, 10]"}
	}
	if p.Weighting != WeightingEqual && p.Weighting != WeightingMarketCap {
		return ValidationError{"policy.weighting", "must be equal or market_cap"}
	}
	if p.RankBy != RankByMarketCap && p.RankBy != RankByConfidence {
		return ValidationError{"policy.rank_by", "must be market_cap or confidence"}
	}
	if p.StopLoss <= 0 || p.StopLoss > 1 {
		return ValidationError{"policy.stop_loss", "must be in range (0, 1]"}
	}
	if p.VolatilityPower <= 0 {
		return ValidationError{"policy.volatility_power", "must be > 0"}
	}

	// === Risk ===
	if cfg.Risk.RiskFreeRate < 0 || cfg.Risk.RiskFreeRate >= 1 {
		return ValidationError{"risk.risk_free_rate", "must be in range [0, 1)"}
	}

	// === Bootstrap ===
	if cfg.Bootstrap.Trials < 1 {
		return ValidationError{"bootstrap.trials", "must be >= 1"}
	}

	// === Schedule ===
	if cfg.Schedule.Cron != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(cfg.Schedule.Cron); err != nil {
			return ValidationError{"schedule.cron", err.Error()}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 연환산 계수 오버라이드 경고
	if ppy := cfg.Cadence.PeriodsPerYear; ppy > 0 && ppy != DefaultPeriodsPerYear(cfg.Cadence.Name) {
		warnings = append(warnings, Warning{
			Code: "ANNUALIZATION_OVERRIDE",
			Message: fmt.Sprintf("periods_per_year=%d differs from %s default %d",
				ppy, cfg.Cadence.Name, DefaultPeriodsPerYear(cfg.Cadence.Name)),
		})
	}

	if cfg.Policy.Name == PolicyTopNMarketCap && cfg.Policy.RankBy == RankByConfidence && !cfg.Policy.ConfidenceFilter {
		warnings = append(warnings, Warning{
			Code:    "UNFILTERED_CONFIDENCE_RANK",
			Message: "rank_by=confidence without confidence_filter ranks every BUY including confidence 0",
		})
	}

	if cfg.Policy.StopLoss > 0.5 && (cfg.Policy.Name == PolicyTrailingStopLoss || cfg.Policy.Name == PolicyVolatilityWeighted) {
		warnings = append(warnings, Warning{
			Code:    "LOOSE_STOP_LOSS",
			Message: "stop_loss > 50%: filter will rarely exclude anything",
		})
	}

	if cfg.Risk.RiskFreeRate > 0.2 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_RISK_FREE_RATE",
			Message: "risk_free_rate > 20%: check units (fraction, not percent)",
		})
	}

	return warnings
}

func knownPolicy(name string) bool {
	for _, n := range PolicyNames {
		if n == name {
			return true
		}
	}
	return false
}
