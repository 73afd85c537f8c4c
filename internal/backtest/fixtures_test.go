package backtest

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/signalbt/internal/contracts"
)

// fakePrices serves fixed forward-period returns
type fakePrices struct {
	returns map[contracts.Period]map[string]float64
	stats   map[contracts.Period]map[string]contracts.SeriesStats
}

func newFakePrices() *fakePrices {
	return &fakePrices{
		returns: make(map[contracts.Period]map[string]float64),
		stats:   make(map[contracts.Period]map[string]contracts.SeriesStats),
	}
}

func (f *fakePrices) set(period contracts.Period, instrument string, r float64) *fakePrices {
	if f.returns[period] == nil {
		f.returns[period] = make(map[string]float64)
	}
	f.returns[period][instrument] = r
	return f
}

func (f *fakePrices) setStats(period contracts.Period, instrument string, st contracts.SeriesStats) *fakePrices {
	if f.stats[period] == nil {
		f.stats[period] = make(map[string]contracts.SeriesStats)
	}
	f.stats[period][instrument] = st
	return f
}

// emptyPeriod marks a forward period as present with no usable files
func (f *fakePrices) emptyPeriod(period contracts.Period) *fakePrices {
	if f.returns[period] == nil {
		f.returns[period] = make(map[string]float64)
	}
	return f
}

func (f *fakePrices) HasPeriod(_ context.Context, period contracts.Period) bool {
	_, ok := f.returns[period]
	return ok
}

func (f *fakePrices) PeriodReturn(_ context.Context, instrument string, period contracts.Period) (float64, error) {
	r, ok := f.returns[period][instrument]
	if !ok {
		return 0, fmt.Errorf("%s %s: %w", instrument, period, contracts.ErrMissingData)
	}
	return r, nil
}

func (f *fakePrices) Stats(_ context.Context, instrument string, period contracts.Period) (contracts.SeriesStats, bool) {
	st, ok := f.stats[period][instrument]
	return st, ok
}

// fakeDecisions serves decision sets keyed by period
type fakeDecisions map[contracts.Period]contracts.DecisionSet

func (f fakeDecisions) Periods(cutoff contracts.Period) ([]contracts.Period, error) {
	out := make([]contracts.Period, 0, len(f))
	for p := range f {
		if cutoff != "" && p > cutoff {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (f fakeDecisions) DecisionsFor(_ context.Context, period contracts.Period) (contracts.DecisionSet, error) {
	set, ok := f[period]
	if !ok {
		return nil, contracts.ErrMissingData
	}
	return set, nil
}

func decide(entries ...interface{}) contracts.DecisionSet {
	set := make(contracts.DecisionSet)
	for i := 0; i+2 < len(entries); i += 3 {
		inst := entries[i].(string)
		set[inst] = contracts.DecisionRecord{
			Instrument:    inst,
			Decision:      entries[i+1].(contracts.Decision),
			Confidence:    entries[i+2].(int),
			HasConfidence: true,
		}
	}
	return set
}
