package selection

import (
	"math"

	"github.com/wonny/signalbt/internal/contracts"
)

// TrailingStopLoss holds BUYs equally, excluding any instrument whose
// forward-period peak-to-trough drawdown exceeds Threshold.
// Instruments without statistics pass through; the evaluator drops them later.
type TrailingStopLoss struct {
	Threshold float64
}

func (TrailingStopLoss) Name() string { return "trailing_stop_loss" }

func (p TrailingStopLoss) Select(decisions contracts.DecisionSet, side SideData) (contracts.Selection, error) {
	survivors := make([]string, 0)
	for _, rec := range decisions.WithDecision(contracts.DecisionBuy) {
		if st, ok := side.stats(rec.Instrument); ok && st.MaxDrawdown > p.Threshold {
			continue
		}
		survivors = append(survivors, rec.Instrument)
	}
	return contracts.EqualWeight(survivors), nil
}

// VolatilityWeighted holds BUYs that survive the drawdown stop,
// weighted by 1 / volatility^Power. Instruments with no statistics
// or zero volatility cannot be weighted and are left out.
type VolatilityWeighted struct {
	StopLoss float64
	Power    float64
}

func (VolatilityWeighted) Name() string { return "volatility_weighted" }

func (p VolatilityWeighted) Select(decisions contracts.DecisionSet, side SideData) (contracts.Selection, error) {
	power := p.Power
	if power <= 0 {
		power = 1
	}

	holdings := make([]contracts.Holding, 0)
	for _, rec := range decisions.WithDecision(contracts.DecisionBuy) {
		st, ok := side.stats(rec.Instrument)
		if !ok || st.Volatility <= 0 {
			continue
		}
		if p.StopLoss > 0 && st.MaxDrawdown > p.StopLoss {
			continue
		}
		holdings = append(holdings, contracts.Holding{
			Instrument: rec.Instrument,
			Weight:     1 / math.Pow(st.Volatility, power),
			Side:       contracts.SideLong,
		})
	}
	return contracts.Selection{Holdings: contracts.Renormalize(holdings)}, nil
}
