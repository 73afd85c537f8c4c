package selection

import (
	"sort"

	"github.com/wonny/signalbt/internal/contracts"
)

// BuyAll holds every BUY instrument, equally weighted
type BuyAll struct{}

func (BuyAll) Name() string { return "buy_all" }

func (BuyAll) Select(decisions contracts.DecisionSet, _ SideData) (contracts.Selection, error) {
	return contracts.EqualWeight(instruments(decisions.WithDecision(contracts.DecisionBuy))), nil
}

// TopNByConfidence holds the N most confident BUYs at or above Threshold
type TopNByConfidence struct {
	N         int
	Threshold int
}

func (TopNByConfidence) Name() string { return "top_n_confidence" }

func (p TopNByConfidence) Select(decisions contracts.DecisionSet, _ SideData) (contracts.Selection, error) {
	candidates := confident(decisions.WithDecision(contracts.DecisionBuy), p.Threshold)
	rankByConfidence(candidates)
	return contracts.EqualWeight(instruments(cut(candidates, p.N))), nil
}

// TopNByMarketCap holds the N largest BUYs by the month's market cap.
// With RankByConfidence the cut is taken by confidence first and market cap only
// weights the survivors. Instruments without a market cap are never held.
type TopNByMarketCap struct {
	N                int
	Threshold        int
	ConfidenceFilter bool
	CapWeighted      bool
	RankByConfidence bool
}

func (TopNByMarketCap) Name() string { return "top_n_market_cap" }

func (p TopNByMarketCap) Select(decisions contracts.DecisionSet, side SideData) (contracts.Selection, error) {
	candidates := decisions.WithDecision(contracts.DecisionBuy)
	if p.ConfidenceFilter {
		candidates = confident(candidates, p.Threshold)
	}

	if p.RankByConfidence {
		rankByConfidence(candidates)
		candidates = cut(candidates, p.N)
	}

	type capped struct {
		instrument string
		cap        float64
	}
	withCap := make([]capped, 0, len(candidates))
	for _, rec := range candidates {
		if c, ok := side.marketCap(rec.Instrument); ok && c > 0 {
			withCap = append(withCap, capped{instrument: rec.Instrument, cap: c})
		}
	}

	if !p.RankByConfidence {
		sort.SliceStable(withCap, func(i, j int) bool {
			if withCap[i].cap != withCap[j].cap {
				return withCap[i].cap > withCap[j].cap
			}
			return withCap[i].instrument < withCap[j].instrument
		})
		if p.N > 0 && len(withCap) > p.N {
			withCap = withCap[:p.N]
		}
	}

	if !p.CapWeighted {
		names := make([]string, len(withCap))
		for i, c := range withCap {
			names[i] = c.instrument
		}
		return contracts.EqualWeight(names), nil
	}

	holdings := make([]contracts.Holding, len(withCap))
	for i, c := range withCap {
		holdings[i] = contracts.Holding{Instrument: c.instrument, Weight: c.cap, Side: contracts.SideLong}
	}
	return contracts.Selection{Holdings: contracts.Renormalize(holdings)}, nil
}

// confident keeps records at or above the threshold
func confident(records []contracts.DecisionRecord, threshold int) []contracts.DecisionRecord {
	out := make([]contracts.DecisionRecord, 0, len(records))
	for _, rec := range records {
		if rec.Confidence >= threshold {
			out = append(out, rec)
		}
	}
	return out
}

// rankByConfidence sorts descending by confidence, ties alphabetical
func rankByConfidence(records []contracts.DecisionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Confidence != records[j].Confidence {
			return records[i].Confidence > records[j].Confidence
		}
		return records[i].Instrument < records[j].Instrument
	})
}

func cut(records []contracts.DecisionRecord, n int) []contracts.DecisionRecord {
	if n > 0 && len(records) > n {
		return records[:n]
	}
	return records
}

func instruments(records []contracts.DecisionRecord) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.Instrument
	}
	return out
}
