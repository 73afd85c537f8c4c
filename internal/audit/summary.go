package audit

import (
	"fmt"
	"strings"

	"github.com/wonny/signalbt/internal/backtest"
)

const undefined = "undefined"

// FormatSummary renders the summary block as key=value lines
func FormatSummary(res *backtest.Result) string {
	s := res.Summary
	var b strings.Builder

	kv := func(k string, v interface{}) {
		fmt.Fprintf(&b, "%s=%v\n", k, v)
	}
	ratio := func(v *float64) string {
		if v == nil {
			return undefined
		}
		return fmt.Sprintf("%.6f", *v)
	}

	kv("run_id", res.RunID)
	kv("strategy", res.Strategy)
	kv("policy", res.Policy)
	kv("cadence", res.Cadence)
	kv("benchmark", res.Benchmark)
	if res.ConfigHash != "" {
		kv("config_hash", res.ConfigHash)
	}
	kv("periods_scored", res.Scored())
	kv("periods_skipped", len(res.Skipped))
	kv("final_return", fmt.Sprintf("%.6f", s.FinalReturn))
	kv("benchmark_final_return", fmt.Sprintf("%.6f", s.BenchmarkFinalReturn))
	kv("volatility", fmt.Sprintf("%.6f", s.Volatility))
	kv("sharpe", ratio(s.Sharpe))
	kv("sortino", ratio(s.Sortino))
	kv("max_drawdown", fmt.Sprintf("%.6f", s.MaxDrawdown))
	kv("win_rate", fmt.Sprintf("%.6f", s.WinRate))
	kv("risk_free_rate", s.RiskFreeRate)
	kv("periods_per_year", s.PeriodsPerYear)

	return b.String()
}

// ParseSummary reads key=value lines back into a map
func ParseSummary(text string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
