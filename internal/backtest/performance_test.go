package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalbt/internal/contracts"
)

func snaps(pairs ...float64) []contracts.PortfolioSnapshot {
	out := make([]contracts.PortfolioSnapshot, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, contracts.PortfolioSnapshot{
			Period:          contracts.Period(string(rune('a' + i/2))),
			StrategyReturn:  pairs[i],
			BenchmarkReturn: pairs[i+1],
		})
	}
	return out
}

func TestSummarize(t *testing.T) {
	// strategy: +10%, -5%, +20%; benchmark: +5%, +5%, +5%
	s := Summarize(snaps(0.10, 0.05, -0.05, 0.05, 0.20, 0.05), Params{RiskFreeRate: 0.06, PeriodsPerYear: 12})

	final := 1.10*0.95*1.20 - 1
	assert.Equal(t, 3, s.Periods)
	assert.InDelta(t, final, s.FinalReturn, 1e-12)
	assert.InDelta(t, math.Pow(1.05, 3)-1, s.BenchmarkFinalReturn, 1e-12)

	// population stdev of (0.10, -0.05, 0.20)
	mean := (0.10 - 0.05 + 0.20) / 3
	pop := math.Sqrt((math.Pow(0.10-mean, 2) + math.Pow(-0.05-mean, 2) + math.Pow(0.20-mean, 2)) / 3)
	assert.InDelta(t, pop*math.Sqrt(12), s.Volatility, 1e-12)

	require.NotNil(t, s.Sharpe)
	assert.InDelta(t, (final-0.06)/s.Volatility, *s.Sharpe, 1e-12)

	// single negative period: zero downside deviation
	assert.Nil(t, s.Sortino)

	// cumulative 1.10, 1.045, 1.254: drawdown (1.045 - 1.10) / 1.10
	assert.InDelta(t, (1.045-1.10)/1.10, s.MaxDrawdown, 1e-12)
	assert.InDelta(t, 2.0/3, s.WinRate, 1e-12)
	assert.Equal(t, 0.06, s.RiskFreeRate)
	assert.Equal(t, 12, s.PeriodsPerYear)
}

func TestSummarize_SortinoUndefinedWithoutLosses(t *testing.T) {
	s := Summarize(snaps(0.01, 0, 0.02, 0, 0.03, 0), Params{PeriodsPerYear: 52})
	assert.Nil(t, s.Sortino, "no negative periods must be reported as undefined")
	assert.False(t, s.SortinoDefined())
	require.NotNil(t, s.Sharpe)
	assert.Equal(t, 0.0, s.MaxDrawdown)
}

func TestSummarize_Sortino(t *testing.T) {
	s := Summarize(snaps(-0.02, 0, 0.05, 0, -0.06, 0), Params{PeriodsPerYear: 12})
	require.NotNil(t, s.Sortino)

	// downside (-0.02, -0.06): population stdev 0.02
	final := 0.98*1.05*0.94 - 1
	assert.InDelta(t, final/(0.02*math.Sqrt(12)), *s.Sortino, 1e-9)
}

func TestSummarize_SharpeUndefinedWithZeroVolatility(t *testing.T) {
	s := Summarize(snaps(0, 0.01, 0, -0.01), Params{PeriodsPerYear: 12})
	assert.Equal(t, 0.0, s.Volatility)
	assert.Nil(t, s.Sharpe)
	assert.Nil(t, s.Sortino)
	assert.Equal(t, 0.5, s.WinRate)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, Params{PeriodsPerYear: 12})
	assert.Equal(t, 0, s.Periods)
	assert.Nil(t, s.Sharpe)
	assert.Nil(t, s.Sortino)
}

func TestBuildSeries_RoundTrip(t *testing.T) {
	rows := BuildSeries(snaps(0.10, 0.02, -0.20, -0.01, 0.15, 0.03, 0.0, 0.0))
	require.Len(t, rows, 4)

	cum := 1.0
	for _, r := range rows {
		cum *= 1 + r.StrategyReturn
		assert.InDelta(t, cum, r.CumulativeStrategy, 1e-12)
		assert.InDelta(t, r.StrategyReturn-r.BenchmarkReturn, r.ExcessReturn, 1e-15)
	}

	returns := make([]float64, len(rows))
	for i, r := range rows {
		returns[i] = r.StrategyReturn
	}
	for i, c := range Cumulative(returns) {
		assert.Equal(t, rows[i].CumulativeStrategy, c, "recompounded series must equal stored column")
	}
}

func TestRunningMax_Monotone(t *testing.T) {
	values := []float64{1.0, 1.2, 0.9, 1.1, 1.3, 0.5, 1.3, 1.4}
	peaks := RunningMax(values)
	require.Len(t, peaks, len(values))
	for i := 1; i < len(peaks); i++ {
		assert.GreaterOrEqual(t, peaks[i], peaks[i-1])
		assert.GreaterOrEqual(t, peaks[i], values[i])
	}
	assert.Equal(t, []float64{1.0, 1.2, 1.2, 1.2, 1.3, 1.3, 1.3, 1.4}, peaks)
}

func TestMaxDrawdown(t *testing.T) {
	assert.InDelta(t, -0.5, MaxDrawdown([]float64{1, 2, 1, 1.5}), 1e-12)
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1, 1.1, 1.2}))
	assert.Equal(t, 0.0, MaxDrawdown(nil))

	// first value already below 1 is the first peak
	assert.InDelta(t, -0.1, MaxDrawdown([]float64{0.9, 0.81}), 1e-12)
}
