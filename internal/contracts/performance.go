package contracts

// PerformanceSummary is derived from a snapshot sequence; never persisted on its own
// ⭐ SSOT: 성과 요약 필드 정의
type PerformanceSummary struct {
	Periods              int     `json:"periods"`
	FinalReturn          float64 `json:"final_return"`
	BenchmarkFinalReturn float64 `json:"benchmark_final_return"`
	Volatility           float64 `json:"volatility"` // annualized

	// Undefined ratios are nil, never a sentinel number
	Sharpe  *float64 `json:"sharpe"`
	Sortino *float64 `json:"sortino"`

	MaxDrawdown float64 `json:"max_drawdown"` // <= 0
	WinRate     float64 `json:"win_rate"`     // strategy > benchmark, 0.0 ~ 1.0

	RiskFreeRate   float64 `json:"risk_free_rate"`
	PeriodsPerYear int     `json:"periods_per_year"`
}

// SharpeDefined reports whether the Sharpe ratio could be computed
func (s PerformanceSummary) SharpeDefined() bool {
	return s.Sharpe != nil
}

// SortinoDefined reports whether the Sortino ratio could be computed
func (s PerformanceSummary) SortinoDefined() bool {
	return s.Sortino != nil
}

// IsOutperforming checks if the strategy beat the benchmark over the whole run
func (s PerformanceSummary) IsOutperforming() bool {
	return s.FinalReturn > s.BenchmarkFinalReturn
}

// SeriesRow is one row of the tabular return series output
type SeriesRow struct {
	Period              Period  `json:"period"`
	StrategyReturn      float64 `json:"strategy_return"`
	BenchmarkReturn     float64 `json:"benchmark_return"`
	ExcessReturn        float64 `json:"excess_return"`
	CumulativeStrategy  float64 `json:"cumulative_strategy"`
	CumulativeBenchmark float64 `json:"cumulative_benchmark"`
}
