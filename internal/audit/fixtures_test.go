package audit

import (
	"time"

	"github.com/wonny/signalbt/internal/backtest"
	"github.com/wonny/signalbt/internal/contracts"
)

func sampleResult(runID string) *backtest.Result {
	snaps := []contracts.PortfolioSnapshot{
		{
			Period: "2024-01", Forward: "2024-02",
			Holdings:        contracts.EqualWeight([]string{"INFY", "TCS"}).Holdings,
			StrategyReturn:  0.10,
			BenchmarkReturn: 0.02, BenchmarkAvailable: true,
		},
		{
			Period: "2024-02", Forward: "2024-03",
			StrategyReturn:  0,
			BenchmarkReturn: -0.01, BenchmarkAvailable: true,
		},
		{
			Period: "2024-03", Forward: "2024-04",
			Holdings:        contracts.EqualWeight([]string{"TCS"}).Holdings,
			Dropped:         []contracts.DroppedHolding{{Instrument: "WIPRO", Reason: "missing price file"}},
			StrategyReturn:  -0.05,
			BenchmarkReturn: 0.01, BenchmarkAvailable: true,
		},
	}

	return &backtest.Result{
		RunID:      runID,
		Strategy:   "top_n_confidence",
		Policy:     "top_n_confidence",
		Cadence:    "monthly",
		Benchmark:  "NSEI",
		ConfigHash: "abc123",
		StartedAt:  time.Date(2024, 5, 1, 9, 30, 0, 123, time.UTC),
		Elapsed:    1500 * time.Millisecond,
		Snapshots:  snaps,
		Series:     backtest.BuildSeries(snaps),
		Skipped: []contracts.SkippedPeriod{
			{Period: "2024-04", Forward: "2024-05", Reason: "no price directory for forward period"},
		},
		Summary: backtest.Summarize(snaps, backtest.Params{PeriodsPerYear: 12}),
	}
}
