package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wonny/signalbt/internal/backtest"
	"github.com/wonny/signalbt/internal/scheduler"
	"github.com/wonny/signalbt/internal/strategyconfig"
	"github.com/wonny/signalbt/pkg/config"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	singleLine = "───────────────────────────────────────────────────────────"
	doubleLine = "═══════════════════════════════════════════════════════════"
)

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println(singleLine)
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println(doubleLine)
}

// PrintProgress prints a progress step with counter
// Example: [Convert] 2024-01: 48 files [1/12]
func PrintProgress(tag string, message string, current int, total int) {
	fmt.Printf("[%s] %s [%d/%d]\n", tag, message, current, total)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

func printWarnings(warnings []strategyconfig.Warning) {
	for _, w := range warnings {
		fmt.Printf("⚠️  [%s] %s\n", w.Code, w.Message)
	}
}

// PrintRunHeader prints the resolved run parameters
func PrintRunHeader(sc *strategyconfig.Config, env *config.Config) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  Backtest : %s\n", sc.Meta.StrategyID)
	PrintSeparator()
	fmt.Printf("  Policy    : %s\n", describePolicy(sc.Policy))
	fmt.Printf("  Cadence   : %s (annualization %d)\n", sc.Cadence.Name, sc.AnnualizationFactor())
	if sc.Cadence.Cutoff != "" {
		fmt.Printf("  Cutoff    : %s\n", sc.Cadence.Cutoff)
	}
	fmt.Printf("  Benchmark : %s\n", sc.Benchmark)
	fmt.Printf("  Signals   : %s\n", env.Data.SignalsDir)
	fmt.Printf("  Prices    : %s\n", env.Data.PricesDir)
	PrintSeparator()
}

func describePolicy(p strategyconfig.Policy) string {
	switch p.Name {
	case strategyconfig.PolicyTopNConfidence:
		return fmt.Sprintf("%s (N=%d, threshold=%d)", p.Name, p.TopN, p.ConfidenceThreshold)
	case strategyconfig.PolicyTopNMarketCap:
		s := fmt.Sprintf("%s (N=%d, weighting=%s, rank_by=%s", p.Name, p.TopN, p.Weighting, p.RankBy)
		if p.ConfidenceFilter {
			s += fmt.Sprintf(", threshold=%d", p.ConfidenceThreshold)
		}
		return s + ")"
	case strategyconfig.PolicyTrailingStopLoss:
		return fmt.Sprintf("%s (stop=%.1f%%)", p.Name, p.StopLoss*100)
	case strategyconfig.PolicyVolatilityWeighted:
		return fmt.Sprintf("%s (stop=%.1f%%, power=%.2g)", p.Name, p.StopLoss*100, p.VolatilityPower)
	default:
		return p.Name
	}
}

func ratioString(v *float64) string {
	if v == nil {
		return "undefined"
	}
	return fmt.Sprintf("%.2f", *v)
}

// PrintBacktestResult prints the run report to stdout
func PrintBacktestResult(result *backtest.Result) {
	writeBacktestResult(os.Stdout, result)
}

func writeBacktestResult(w io.Writer, result *backtest.Result) {
	s := result.Summary

	fmt.Fprintln(w, "\n✅ Backtest Completed")
	fmt.Fprintln(w, "="+strings.Repeat("=", 60))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📊 Summary")
	fmt.Fprintf(w, "Run ID:          %s\n", result.RunID)
	fmt.Fprintf(w, "Periods:         %d scored, %d skipped\n", result.Scored(), len(result.Skipped))
	if len(result.Series) > 0 {
		fmt.Fprintf(w, "Range:           %s ~ %s\n", result.Series[0].Period, result.Series[len(result.Series)-1].Period)
	}
	fmt.Fprintf(w, "Duration:        %.2f seconds\n", result.Elapsed.Seconds())
	fmt.Fprintln(w)

	fmt.Fprintln(w, "💰 Performance")
	fmt.Fprintf(w, "Final Return:    %+.2f%%\n", s.FinalReturn*100)
	fmt.Fprintf(w, "Benchmark:       %+.2f%% (%s)", s.BenchmarkFinalReturn*100, result.Benchmark)
	if s.IsOutperforming() {
		fmt.Fprint(w, " 🌟 (Outperformed)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Win Rate:        %.1f%% of periods beat the benchmark\n", s.WinRate*100)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📉 Risk Metrics")
	fmt.Fprintf(w, "Volatility:      %.2f%% (x sqrt(%d))\n", s.Volatility*100, s.PeriodsPerYear)
	fmt.Fprintf(w, "Sharpe Ratio:    %s", ratioString(s.Sharpe))
	if s.SharpeDefined() {
		switch sharpe := *s.Sharpe; {
		case sharpe > 3.0:
			fmt.Fprint(w, " 🌟 (Excellent)")
		case sharpe > 2.0:
			fmt.Fprint(w, " ✅ (Very Good)")
		case sharpe > 1.0:
			fmt.Fprint(w, " ⚠️  (Good)")
		default:
			fmt.Fprint(w, " ❌ (Poor)")
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sortino Ratio:   %s", ratioString(s.Sortino))
	if !s.SortinoDefined() {
		fmt.Fprint(w, " (no losing periods)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Max Drawdown:    %.2f%%", s.MaxDrawdown*100)
	switch {
	case s.MaxDrawdown > -0.10:
		fmt.Fprint(w, " 🌟 (Shallow)")
	case s.MaxDrawdown > -0.20:
		fmt.Fprint(w, " ✅ (Moderate)")
	case s.MaxDrawdown > -0.30:
		fmt.Fprint(w, " ⚠️  (Deep)")
	default:
		fmt.Fprint(w, " ❌ (Severe)")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📈 Return Series (Last 10 Periods)")
	start := len(result.Series) - 10
	if start < 0 {
		start = 0
	}
	for _, row := range result.Series[start:] {
		fmt.Fprintf(w, "%s: %+.2f%% vs %+.2f%%  cum %.4f / %.4f\n",
			row.Period, row.StrategyReturn*100, row.BenchmarkReturn*100,
			row.CumulativeStrategy, row.CumulativeBenchmark)
	}

	if len(result.Skipped) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "⏭️  Skipped Periods")
		for _, sk := range result.Skipped {
			fmt.Fprintf(w, "   • %s → %s: %s\n", sk.Period, sk.Forward, sk.Reason)
		}
	}
	fmt.Fprintln(w)
}

// PrintBootstrapResult prints the randomized-decision comparison
func PrintBootstrapResult(res *backtest.BootstrapResult) {
	writeBootstrapResult(os.Stdout, res)
}

func writeBootstrapResult(w io.Writer, res *backtest.BootstrapResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "🎲 Bootstrap vs Random Decisions")
	fmt.Fprintln(w, singleLine)
	fmt.Fprintf(w, "Trials:          %d (seed %d)\n", res.Trials, res.Seed)
	fmt.Fprintf(w, "Real Return:     %+.2f%%\n", res.RealReturn*100)
	fmt.Fprintf(w, "Random Mean:     %+.2f%%\n", res.MeanRandom*100)
	fmt.Fprintf(w, "Random Median:   %+.2f%%\n", res.MedianRandom*100)
	fmt.Fprintf(w, "Percentile:      %.1f", res.Percentile)
	switch {
	case res.Percentile >= 95:
		fmt.Fprint(w, " 🌟 (Significant)")
	case res.Percentile >= 75:
		fmt.Fprint(w, " ✅ (Above most random runs)")
	default:
		fmt.Fprint(w, " ❌ (Indistinguishable from random)")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
}

// PrintJobList prints registered jobs with their next run time
func PrintJobList(s *scheduler.Scheduler) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Println("  Scheduled Jobs")
	PrintSeparator()
	for _, name := range s.Jobs() {
		next := "-"
		if t, ok := s.NextRun(name); ok && !t.IsZero() {
			next = t.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("  %-40s next: %s\n", name, next)
	}
	PrintSeparator()
}
