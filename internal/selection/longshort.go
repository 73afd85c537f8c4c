package selection

import (
	"sort"

	"github.com/wonny/signalbt/internal/contracts"
)

// LongShort holds BUYs long and SELLs short, half the book each.
// The return is the mean of the long-leg average and the short-leg average;
// a leg with no names hands its half to the other leg.
type LongShort struct{}

func (LongShort) Name() string { return "long_short" }

func (LongShort) Select(decisions contracts.DecisionSet, _ SideData) (contracts.Selection, error) {
	longs := instruments(decisions.WithDecision(contracts.DecisionBuy))
	shorts := instruments(decisions.WithDecision(contracts.DecisionSell))

	longBook, shortBook := 0.5, 0.5
	switch {
	case len(longs) == 0 && len(shorts) == 0:
		return contracts.Selection{}, nil
	case len(shorts) == 0:
		longBook, shortBook = 1, 0
	case len(longs) == 0:
		longBook, shortBook = 0, 1
	}

	holdings := make([]contracts.Holding, 0, len(longs)+len(shorts))
	for _, inst := range longs {
		holdings = append(holdings, contracts.Holding{
			Instrument: inst, Weight: longBook / float64(len(longs)), Side: contracts.SideLong,
		})
	}
	for _, inst := range shorts {
		holdings = append(holdings, contracts.Holding{
			Instrument: inst, Weight: shortBook / float64(len(shorts)), Side: contracts.SideShort,
		})
	}
	return contracts.Selection{Holdings: holdings}, nil
}

// CarryHold keeps positions across periods:
// BUY enters, HOLD (or no usable record) retains a held name, SELL exits.
// The held set is an explicit input (side.Held) and output (Selection.Held).
type CarryHold struct{}

func (CarryHold) Name() string { return "carry_hold" }

func (CarryHold) Select(decisions contracts.DecisionSet, side SideData) (contracts.Selection, error) {
	next := make(map[string]struct{}, len(side.Held))

	for _, inst := range side.Held {
		switch decisions.Lookup(inst).Decision {
		case contracts.DecisionSell:
			// exit
		default:
			next[inst] = struct{}{}
		}
	}
	for _, rec := range decisions.WithDecision(contracts.DecisionBuy) {
		next[rec.Instrument] = struct{}{}
	}

	held := make([]string, 0, len(next))
	for inst := range next {
		held = append(held, inst)
	}
	sort.Strings(held)

	sel := contracts.EqualWeight(held)
	sel.Held = held
	return sel, nil
}
