package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/wonny/signalbt/internal/strategyconfig"
	"github.com/wonny/signalbt/pkg/config"
)

// strategyFlags are the per-run flags shared by backtest, bootstrap and periods
type strategyFlags struct {
	runFile string

	strategyID       string
	cadence          string
	periodsPerYear   int
	cutoff           string
	policy           string
	topN             int
	threshold        int
	confidenceFilter bool
	weighting        string
	rankBy           string
	stopLoss         float64
	volPower         float64
	benchmark        string
	riskFree         float64
	trials           int
	seed             int64
}

func bindStrategyFlags(fs *pflag.FlagSet, f *strategyFlags) {
	fs.StringVar(&f.runFile, "run-file", "", "YAML run file; flags below override it")
	fs.StringVar(&f.strategyID, "strategy", "", "output name (default: policy name)")
	fs.StringVar(&f.cadence, "cadence", "monthly", "period cadence (monthly|weekly)")
	fs.IntVar(&f.periodsPerYear, "periods-per-year", 0, "annualization override (0 = cadence default)")
	fs.StringVar(&f.cutoff, "cutoff", "", "last decision period to include (inclusive)")
	fs.StringVar(&f.policy, "policy", strategyconfig.PolicyBuyAll, fmt.Sprintf("selection policy %v", strategyconfig.PolicyNames))
	fs.IntVar(&f.topN, "top-n", strategyconfig.DefaultTopN, "N for top-N policies")
	fs.IntVar(&f.threshold, "threshold", 0, "minimum confidence (0-10)")
	fs.BoolVar(&f.confidenceFilter, "confidence-filter", false, "apply --threshold in top_n_market_cap")
	fs.StringVar(&f.weighting, "weighting", strategyconfig.WeightingEqual, "top_n_market_cap weighting (equal|market_cap)")
	fs.StringVar(&f.rankBy, "rank-by", strategyconfig.RankByMarketCap, "top_n_market_cap ranking (market_cap|confidence)")
	fs.Float64Var(&f.stopLoss, "stop-loss", strategyconfig.DefaultStopLoss, "forward drawdown stop for trailing_stop_loss / volatility_weighted")
	fs.Float64Var(&f.volPower, "vol-power", strategyconfig.DefaultVolatilityPower, "inverse-volatility exponent")
	fs.StringVar(&f.benchmark, "benchmark", "", "benchmark instrument (env BENCHMARK)")
	fs.Float64Var(&f.riskFree, "risk-free", 0, "per-run risk-free rate for Sharpe/Sortino (env RISK_FREE_RATE)")
	fs.IntVar(&f.trials, "trials", strategyconfig.DefaultTrials, "bootstrap trials")
	fs.Int64Var(&f.seed, "seed", strategyconfig.DefaultSeed, "bootstrap seed")
}

// resolveStrategy merges env defaults, the run file and changed flags, in that order
func resolveStrategy(fs *pflag.FlagSet, f *strategyFlags, env *config.Config) (*strategyconfig.Config, error) {
	sc := &strategyconfig.Config{}
	fromFile := f.runFile != ""
	if fromFile {
		loaded, _, err := strategyconfig.Load(f.runFile)
		if err != nil {
			return nil, fmt.Errorf("load run file: %w", err)
		}
		sc = loaded
	}

	// 파일이 없으면 flag 기본값도 그대로 적용
	set := func(name string) bool {
		return fs.Changed(name) || !fromFile
	}

	if set("strategy") && f.strategyID != "" {
		sc.Meta.StrategyID = f.strategyID
	}
	if set("cadence") {
		sc.Cadence.Name = f.cadence
	}
	if set("periods-per-year") {
		sc.Cadence.PeriodsPerYear = f.periodsPerYear
	}
	if set("cutoff") {
		sc.Cadence.Cutoff = f.cutoff
	}
	if set("policy") {
		sc.Policy.Name = f.policy
	}
	if set("top-n") {
		sc.Policy.TopN = f.topN
	}
	if set("threshold") {
		sc.Policy.ConfidenceThreshold = f.threshold
	}
	if set("confidence-filter") {
		sc.Policy.ConfidenceFilter = f.confidenceFilter
	}
	if set("weighting") {
		sc.Policy.Weighting = f.weighting
	}
	if set("rank-by") {
		sc.Policy.RankBy = f.rankBy
	}
	if set("stop-loss") {
		sc.Policy.StopLoss = f.stopLoss
	}
	if set("vol-power") {
		sc.Policy.VolatilityPower = f.volPower
	}
	if set("trials") {
		sc.Bootstrap.Trials = f.trials
	}
	if set("seed") {
		sc.Bootstrap.Seed = f.seed
	}

	if fs.Changed("benchmark") {
		sc.Benchmark = f.benchmark
	}
	if sc.Benchmark == "" {
		sc.Benchmark = env.Benchmark
	}

	switch {
	case fs.Changed("risk-free"):
		sc.Risk.RiskFreeRate = f.riskFree
	case sc.Risk.RiskFreeRate == 0:
		sc.Risk.RiskFreeRate = env.RiskFreeRate
	}

	strategyconfig.ApplyDefaults(sc)
	if err := strategyconfig.Validate(sc); err != nil {
		return nil, err
	}
	return sc, nil
}
