package backtest

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/signalbt/internal/contracts"
	"github.com/wonny/signalbt/pkg/logger"
)

var randomLabels = []contracts.Decision{contracts.DecisionBuy, contracts.DecisionSell, contracts.DecisionHold}

// RandomDecisions keeps each period's instrument universe but replaces every
// label with one drawn uniformly from BUY/SELL/HOLD and every confidence with
// one drawn uniformly from [0,10]
type RandomDecisions struct {
	source DecisionSource
	rng    *rand.Rand
}

// NewRandomDecisions wraps a real decision source with a seeded generator
func NewRandomDecisions(source DecisionSource, seed int64) *RandomDecisions {
	return &RandomDecisions{source: source, rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomDecisions) Periods(cutoff contracts.Period) ([]contracts.Period, error) {
	return r.source.Periods(cutoff)
}

func (r *RandomDecisions) DecisionsFor(ctx context.Context, period contracts.Period) (contracts.DecisionSet, error) {
	actual, err := r.source.DecisionsFor(ctx, period)
	if err != nil {
		return nil, err
	}

	// 종목 순서 고정 → 같은 seed면 같은 결과
	out := make(contracts.DecisionSet, len(actual))
	for _, inst := range actual.Instruments() {
		out[inst] = contracts.DecisionRecord{
			Instrument:    inst,
			Period:        period,
			Decision:      randomLabels[r.rng.Intn(len(randomLabels))],
			Confidence:    r.rng.Intn(contracts.MaxConfidence + 1),
			HasConfidence: true,
		}
	}
	return out, nil
}

// BootstrapResult compares a real run against randomized-decision runs
type BootstrapResult struct {
	Trials        int       `json:"trials"`
	Seed          int64     `json:"seed"`
	RealReturn    float64   `json:"real_return"`
	RandomReturns []float64 `json:"random_returns"`
	MeanRandom    float64   `json:"mean_random"`
	MedianRandom  float64   `json:"median_random"`
	Percentile    float64   `json:"percentile"` // share of random runs strictly below the real one, 0 ~ 100
}

// Bootstrap re-runs the same configuration with randomized decisions.
// Trial i uses seed+i, so results are reproducible for a given seed.
// Trials run on a quiet copy of evaluator: they add no drop metrics and no
// per-instrument log lines.
func Bootstrap(ctx context.Context, decisions DecisionSource, evaluator *Evaluator, cfg Config, actual *Result, trials int, seed int64, log *logger.Logger) (*BootstrapResult, error) {
	if trials < 1 {
		return nil, fmt.Errorf("bootstrap trials must be >= 1, got %d", trials)
	}
	if log == nil {
		log = logger.NewNop()
	}

	out := &BootstrapResult{
		Trials:        trials,
		Seed:          seed,
		RealReturn:    actual.Summary.FinalReturn,
		RandomReturns: make([]float64, 0, trials),
	}

	quiet := logger.NewNop()
	trialEvaluator := evaluator.quiet()
	for i := 0; i < trials; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		engine := NewEngine(NewRandomDecisions(decisions, seed+int64(i)), trialEvaluator, quiet)
		res, err := engine.Run(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap trial %d: %w", i, err)
		}
		out.RandomReturns = append(out.RandomReturns, res.Summary.FinalReturn)

		if (i+1)%100 == 0 {
			log.WithFields(map[string]interface{}{
				"trial":  i + 1,
				"trials": trials,
			}).Info("Bootstrap progress")
		}
	}

	below := 0
	for _, r := range out.RandomReturns {
		if r < out.RealReturn {
			below++
		}
	}
	out.Percentile = float64(below) / float64(trials) * 100
	out.MeanRandom = stat.Mean(out.RandomReturns, nil)
	out.MedianRandom = median(out.RandomReturns)

	return out, nil
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
