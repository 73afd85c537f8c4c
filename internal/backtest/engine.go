package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/signalbt/internal/calendar"
	"github.com/wonny/signalbt/internal/contracts"
	"github.com/wonny/signalbt/internal/selection"
	"github.com/wonny/signalbt/pkg/logger"
)

// DecisionSource supplies decision periods and their records
type DecisionSource interface {
	Periods(cutoff contracts.Period) ([]contracts.Period, error)
	DecisionsFor(ctx context.Context, period contracts.Period) (contracts.DecisionSet, error)
}

// Config holds one run's parameters
type Config struct {
	Strategy       string // output name, e.g. "topn_cap_gpt"
	Cadence        calendar.Cadence
	Policy         selection.Policy
	Benchmark      string
	Cutoff         contracts.Period
	RiskFreeRate   float64
	PeriodsPerYear int // 0 = cadence default
	ConfigHash     string
}

func (c Config) annualization() int {
	if c.PeriodsPerYear > 0 {
		return c.PeriodsPerYear
	}
	return c.Cadence.PeriodsPerYear()
}

// Result holds everything one run produced
type Result struct {
	RunID      string        `json:"run_id"`
	Strategy   string        `json:"strategy"`
	Policy     string        `json:"policy"`
	Cadence    string        `json:"cadence"`
	Benchmark  string        `json:"benchmark"`
	ConfigHash string        `json:"config_hash,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Elapsed    time.Duration `json:"elapsed"`

	Snapshots []contracts.PortfolioSnapshot `json:"snapshots"`
	Series    []contracts.SeriesRow         `json:"series"`
	Skipped   []contracts.SkippedPeriod     `json:"skipped"`
	Summary   contracts.PerformanceSummary  `json:"summary"`
}

// Scored returns the number of scored periods
func (r *Result) Scored() int {
	return len(r.Snapshots)
}

// Engine walks decision periods in calendar order
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Engine struct {
	decisions DecisionSource
	evaluator *Evaluator
	recorder  Recorder
	logger    *logger.Logger
}

// NewEngine creates a new backtest engine
func NewEngine(decisions DecisionSource, evaluator *Evaluator, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{
		decisions: decisions,
		evaluator: evaluator,
		recorder:  NopRecorder{},
		logger:    log,
	}
}

// SetRecorder wires a metrics recorder into the engine and its evaluator
func (e *Engine) SetRecorder(r Recorder) {
	if r == nil {
		return
	}
	e.recorder = r
	e.evaluator.SetRecorder(r)
}

// Run executes the walk-forward backtest.
// Per-instrument and per-period problems are contained; only structural
// failures (no periods, nothing scored, benchmark never resolvable) and
// cancellation between periods are returned.
func (e *Engine) Run(ctx context.Context, cfg Config) (result *Result, err error) {
	start := time.Now()
	defer func() {
		e.recorder.RunFinished(cfg.Strategy, time.Since(start), err)
	}()

	if cfg.Cadence == nil || cfg.Policy == nil {
		return nil, fmt.Errorf("cadence and policy are required: %w", contracts.ErrStructural)
	}

	log := e.logger.WithFields(map[string]interface{}{
		"strategy": cfg.Strategy,
		"policy":   cfg.Policy.Name(),
		"cadence":  cfg.Cadence.Name(),
	})

	periods, err := e.decisions.Periods(cfg.Cutoff)
	if err != nil {
		return nil, fmt.Errorf("enumerate decision periods: %v: %w", err, contracts.ErrStructural)
	}
	if len(periods) == 0 {
		return nil, fmt.Errorf("no decision periods found: %w", contracts.ErrStructural)
	}

	log.WithField("periods", len(periods)).Info("Starting backtest")

	result = &Result{
		RunID:      uuid.New().String(),
		Strategy:   cfg.Strategy,
		Policy:     cfg.Policy.Name(),
		Cadence:    cfg.Cadence.Name(),
		Benchmark:  cfg.Benchmark,
		ConfigHash: cfg.ConfigHash,
		StartedAt:  start,
		Snapshots:  make([]contracts.PortfolioSnapshot, 0, len(periods)),
		Skipped:    make([]contracts.SkippedPeriod, 0),
	}

	var held []string
	benchmarkSeen := false

	for _, period := range periods {
		// 기간 사이에서만 중단 가능
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		forward, err := cfg.Cadence.Successor(period)
		if err != nil {
			e.skip(log, cfg, result, contracts.SkippedPeriod{Period: period, Reason: err.Error()})
			continue
		}
		month, _ := cfg.Cadence.Month(period)

		decisions, err := e.decisions.DecisionsFor(ctx, period)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			e.skip(log, cfg, result, contracts.SkippedPeriod{Period: period, Forward: forward, Reason: "decisions unreadable: " + err.Error()})
			continue
		}

		out, err := e.evaluator.Evaluate(ctx, PeriodInput{
			Period:    period,
			Forward:   forward,
			Month:     month,
			Decisions: decisions,
			Policy:    cfg.Policy,
			Held:      held,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.skip(log, cfg, result, contracts.SkippedPeriod{Period: period, Forward: forward, Reason: err.Error()})
			continue
		}

		if out.State == contracts.StateSkipped {
			e.skip(log, cfg, result, contracts.SkippedPeriod{Period: period, Forward: forward, Reason: out.Reason})
			continue
		}

		held = out.Held
		benchmarkSeen = benchmarkSeen || out.Snapshot.BenchmarkAvailable
		result.Snapshots = append(result.Snapshots, out.Snapshot)
		e.recorder.PeriodScored(cfg.Strategy)

		log.WithFields(map[string]interface{}{
			"period":    period,
			"holdings":  len(out.Snapshot.Holdings),
			"dropped":   len(out.Snapshot.Dropped),
			"return":    fmt.Sprintf("%.2f%%", out.Snapshot.StrategyReturn*100),
			"benchmark": fmt.Sprintf("%.2f%%", out.Snapshot.BenchmarkReturn*100),
		}).Debug("Period scored")
	}

	if len(result.Snapshots) == 0 {
		return nil, fmt.Errorf("0 of %d periods scored: %w", len(periods), contracts.ErrStructural)
	}
	if !benchmarkSeen {
		return nil, fmt.Errorf("benchmark %q never resolvable: %w", cfg.Benchmark, contracts.ErrStructural)
	}

	result.Series = BuildSeries(result.Snapshots)
	result.Summary = Summarize(result.Snapshots, Params{
		RiskFreeRate:   cfg.RiskFreeRate,
		PeriodsPerYear: cfg.annualization(),
	})
	result.Elapsed = time.Since(start)

	log.WithFields(map[string]interface{}{
		"run_id":       result.RunID,
		"scored":       result.Scored(),
		"skipped":      len(result.Skipped),
		"final_return": fmt.Sprintf("%.2f%%", result.Summary.FinalReturn*100),
		"max_drawdown": fmt.Sprintf("%.2f%%", result.Summary.MaxDrawdown*100),
	}).Info("Backtest completed")

	return result, nil
}

func (e *Engine) skip(log *logger.Logger, cfg Config, result *Result, s contracts.SkippedPeriod) {
	result.Skipped = append(result.Skipped, s)
	e.recorder.PeriodSkipped(cfg.Strategy, s.Reason)
	log.WithFields(map[string]interface{}{
		"period":  s.Period,
		"forward": s.Forward,
		"reason":  s.Reason,
	}).Warn("[SKIP] period excluded")
}
