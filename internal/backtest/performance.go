package backtest

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/signalbt/internal/contracts"
)

// Params are the explicit summary parameters
type Params struct {
	RiskFreeRate   float64
	PeriodsPerYear int // annualization factor: 12 monthly, 52 weekly
}

// Cumulative compounds returns: out[i] = Π_{k<=i} (1 + r_k)
func Cumulative(returns []float64) []float64 {
	out := make([]float64, len(returns))
	acc := 1.0
	for i, r := range returns {
		acc *= 1 + r
		out[i] = acc
	}
	return out
}

// RunningMax is the non-decreasing running maximum of values
func RunningMax(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if i == 0 || v > out[i-1] {
			out[i] = v
		} else {
			out[i] = out[i-1]
		}
	}
	return out
}

// MaxDrawdown is min_i (v_i - runmax_i) / runmax_i, a value <= 0
func MaxDrawdown(cumulative []float64) float64 {
	peaks := RunningMax(cumulative)
	worst := 0.0
	for i, v := range cumulative {
		if peaks[i] <= 0 {
			continue
		}
		if dd := (v - peaks[i]) / peaks[i]; dd < worst {
			worst = dd
		}
	}
	return worst
}

// BuildSeries turns snapshots into the tabular return series
func BuildSeries(snapshots []contracts.PortfolioSnapshot) []contracts.SeriesRow {
	rows := make([]contracts.SeriesRow, len(snapshots))
	cumS, cumB := 1.0, 1.0
	for i, s := range snapshots {
		cumS *= 1 + s.StrategyReturn
		cumB *= 1 + s.BenchmarkReturn
		rows[i] = contracts.SeriesRow{
			Period:              s.Period,
			StrategyReturn:      s.StrategyReturn,
			BenchmarkReturn:     s.BenchmarkReturn,
			ExcessReturn:        s.StrategyReturn - s.BenchmarkReturn,
			CumulativeStrategy:  cumS,
			CumulativeBenchmark: cumB,
		}
	}
	return rows
}

// Summarize is a pure function of the snapshot sequence and params
// ⭐ SSOT: 성과 지표 계산은 여기서만
func Summarize(snapshots []contracts.PortfolioSnapshot, p Params) contracts.PerformanceSummary {
	summary := contracts.PerformanceSummary{
		Periods:        len(snapshots),
		RiskFreeRate:   p.RiskFreeRate,
		PeriodsPerYear: p.PeriodsPerYear,
	}
	if len(snapshots) == 0 {
		return summary
	}

	strategy := make([]float64, len(snapshots))
	benchmark := make([]float64, len(snapshots))
	wins := 0
	for i, s := range snapshots {
		strategy[i] = s.StrategyReturn
		benchmark[i] = s.BenchmarkReturn
		if s.StrategyReturn > s.BenchmarkReturn {
			wins++
		}
	}

	cumS := Cumulative(strategy)
	cumB := Cumulative(benchmark)
	summary.FinalReturn = cumS[len(cumS)-1] - 1
	summary.BenchmarkFinalReturn = cumB[len(cumB)-1] - 1
	summary.WinRate = float64(wins) / float64(len(snapshots))
	summary.MaxDrawdown = MaxDrawdown(cumS)

	annualize := math.Sqrt(float64(p.PeriodsPerYear))
	summary.Volatility = stat.PopStdDev(strategy, nil) * annualize

	excess := summary.FinalReturn - p.RiskFreeRate
	summary.Sharpe = ratio(excess, summary.Volatility)

	// Sortino: 하락 구간만의 표준편차; 하락 구간이 없으면 정의되지 않음
	downside := make([]float64, 0, len(strategy))
	for _, r := range strategy {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) > 0 {
		summary.Sortino = ratio(excess, stat.PopStdDev(downside, nil)*annualize)
	}

	return summary
}

// ratio returns nil when the denominator is zero or not finite
func ratio(num, den float64) *float64 {
	if den == 0 || math.IsNaN(den) || math.IsInf(den, 0) {
		return nil
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil
	}
	return &r
}
