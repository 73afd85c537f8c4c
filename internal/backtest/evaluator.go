package backtest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/signalbt/internal/contracts"
	"github.com/wonny/signalbt/internal/selection"
	"github.com/wonny/signalbt/pkg/logger"
)

// PriceAccess resolves forward-period returns and statistics
type PriceAccess interface {
	HasPeriod(ctx context.Context, period contracts.Period) bool
	PeriodReturn(ctx context.Context, instrument string, period contracts.Period) (float64, error)
	Stats(ctx context.Context, instrument string, period contracts.Period) (contracts.SeriesStats, bool)
}

// Outcome is the evaluator result for one decision period
type Outcome struct {
	State    contracts.PeriodState
	Snapshot contracts.PortfolioSnapshot // set when SCORED
	Held     []string                    // carried set after this period
	Reason   string                      // set when SKIPPED
}

// Evaluator scores one period: select, resolve returns, renormalize, weight
// ⭐ SSOT: 기간별 포트폴리오 수익률 계산은 여기서만
type Evaluator struct {
	prices     PriceAccess
	marketCaps selection.MarketCaps
	benchmark  string
	workers    int
	recorder   Recorder
	logger     *logger.Logger
}

// NewEvaluator creates an evaluator; workers < 1 means sequential resolution
func NewEvaluator(prices PriceAccess, marketCaps selection.MarketCaps, benchmark string, workers int, log *logger.Logger) *Evaluator {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Evaluator{
		prices:     prices,
		marketCaps: marketCaps,
		benchmark:  benchmark,
		workers:    workers,
		recorder:   NopRecorder{},
		logger:     log,
	}
}

// SetRecorder replaces the metrics recorder
func (e *Evaluator) SetRecorder(r Recorder) {
	if r != nil {
		e.recorder = r
	}
}

// quiet returns a copy that neither logs nor records metrics
func (e *Evaluator) quiet() *Evaluator {
	c := *e
	c.logger = logger.NewNop()
	c.recorder = NopRecorder{}
	return &c
}

// PeriodInput is everything the evaluator needs for period t
type PeriodInput struct {
	Period    contracts.Period
	Forward   contracts.Period
	Month     string
	Decisions contracts.DecisionSet
	Policy    selection.Policy
	Held      []string
}

type resolved struct {
	ret float64
	err error // non-nil means unavailable
}

// Evaluate runs the AWAITING_PRICES -> SCORED | SKIPPED state machine for one period
func (e *Evaluator) Evaluate(ctx context.Context, in PeriodInput) (Outcome, error) {
	if !e.prices.HasPeriod(ctx, in.Forward) {
		return Outcome{State: contracts.StateSkipped, Held: in.Held, Reason: "no price directory for forward period"}, nil
	}

	side := selection.SideData{
		Period:     in.Period,
		Forward:    in.Forward,
		Month:      in.Month,
		MarketCaps: e.marketCaps,
		Stats: func(instrument string) (contracts.SeriesStats, bool) {
			return e.prices.Stats(ctx, instrument, in.Forward)
		},
		Held: in.Held,
	}

	sel, err := in.Policy.Select(in.Decisions, side)
	if err != nil {
		return Outcome{}, fmt.Errorf("policy %s on %s: %w", in.Policy.Name(), in.Period, err)
	}

	// index len(holdings) is the benchmark
	returns, err := e.resolve(ctx, sel.Holdings, in.Forward)
	if err != nil {
		return Outcome{}, err
	}

	snap := contracts.PortfolioSnapshot{Period: in.Period, Forward: in.Forward}

	available := make([]contracts.Holding, 0, len(sel.Holdings))
	retByInst := make(map[string]float64, len(sel.Holdings))
	for i, h := range sel.Holdings {
		if err := returns[i].err; err != nil {
			reason := contracts.UnavailableReason(err)
			snap.Dropped = append(snap.Dropped, contracts.DroppedHolding{Instrument: h.Instrument, Reason: reason})
			e.recorder.InstrumentDropped(in.Policy.Name())
			e.logger.WithFields(map[string]interface{}{
				"period":     in.Period,
				"forward":    in.Forward,
				"instrument": h.Instrument,
				"reason":     reason,
			}).Warn("instrument dropped: return unavailable")
			continue
		}
		available = append(available, h)
		retByInst[h.Instrument] = returns[i].ret
	}

	snap.Holdings = renormalizeBySide(sel.Holdings, available)
	for _, h := range snap.Holdings {
		r := retByInst[h.Instrument]
		if h.Side == contracts.SideShort {
			r = -r
		}
		snap.StrategyReturn += h.Weight * r
	}

	bench := returns[len(sel.Holdings)]
	snap.BenchmarkAvailable = bench.err == nil
	if bench.err == nil {
		snap.BenchmarkReturn = bench.ret
	} else {
		e.logger.WithFields(map[string]interface{}{
			"period":    in.Period,
			"forward":   in.Forward,
			"benchmark": e.benchmark,
			"reason":    contracts.UnavailableReason(bench.err),
		}).Warn("benchmark return unavailable, using 0")
	}

	return Outcome{State: contracts.StateScored, Snapshot: snap, Held: sel.Held}, nil
}

// resolve fetches returns for every holding plus the benchmark; results are index-aligned
func (e *Evaluator) resolve(ctx context.Context, holdings []contracts.Holding, forward contracts.Period) ([]resolved, error) {
	out := make([]resolved, len(holdings)+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range out {
		i := i
		instrument := e.benchmark
		if i < len(holdings) {
			instrument = holdings[i].Instrument
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := e.prices.PeriodReturn(gctx, instrument, forward)
			if cerr := gctx.Err(); cerr != nil {
				return cerr
			}
			out[i] = resolved{ret: r, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// renormalizeBySide rescales surviving holdings so that each side keeps its
// original share of the book. A side that lost every holding hands its share
// to the surviving side. The result sums to 1 or is empty.
func renormalizeBySide(original, available []contracts.Holding) []contracts.Holding {
	if len(available) == 0 {
		return nil
	}

	origShare := map[contracts.Side]float64{}
	for _, h := range original {
		origShare[h.Side] += h.Weight
	}
	survShare := map[contracts.Side]float64{}
	for _, h := range available {
		survShare[h.Side] += h.Weight
	}

	scaled := make([]contracts.Holding, len(available))
	for i, h := range available {
		if s := survShare[h.Side]; s > 0 {
			h.Weight = h.Weight / s * origShare[h.Side]
		}
		scaled[i] = h
	}
	return contracts.Renormalize(scaled)
}
