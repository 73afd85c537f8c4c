// Package selection holds the interchangeable portfolio-construction policies.
package selection

import (
	"fmt"

	"github.com/wonny/signalbt/internal/contracts"
	"github.com/wonny/signalbt/internal/strategyconfig"
)

// Policy turns one period's decisions into a weighted selection for the forward period
// ⭐ 계약: 결과는 비어 있거나 Weight 합 = 1, 동점은 종목명 알파벳순
type Policy interface {
	Name() string
	Select(decisions contracts.DecisionSet, side SideData) (contracts.Selection, error)
}

// MarketCaps looks up a month's market cap for an instrument
type MarketCaps interface {
	Lookup(month, instrument string) (float64, bool)
}

// StatsFunc returns forward-period statistics for an instrument
type StatsFunc func(instrument string) (contracts.SeriesStats, bool)

// SideData is the auxiliary input a policy may consult
type SideData struct {
	Period  contracts.Period // decision period t
	Forward contracts.Period // holding period t+1
	Month   string           // "2006-01" month containing t, for market caps

	MarketCaps MarketCaps
	Stats      StatsFunc

	// Held is the position set carried out of the previous scored period
	Held []string
}

func (s SideData) stats(instrument string) (contracts.SeriesStats, bool) {
	if s.Stats == nil {
		return contracts.SeriesStats{}, false
	}
	return s.Stats(instrument)
}

func (s SideData) marketCap(instrument string) (float64, bool) {
	if s.MarketCaps == nil {
		return 0, false
	}
	return s.MarketCaps.Lookup(s.Month, instrument)
}

// New builds the policy named in the run file
func New(cfg strategyconfig.Policy) (Policy, error) {
	switch cfg.Name {
	case strategyconfig.PolicyBuyAll:
		return BuyAll{}, nil
	case strategyconfig.PolicyTopNConfidence:
		return TopNByConfidence{N: cfg.TopN, Threshold: cfg.ConfidenceThreshold}, nil
	case strategyconfig.PolicyTopNMarketCap:
		return TopNByMarketCap{
			N:                cfg.TopN,
			Threshold:        cfg.ConfidenceThreshold,
			ConfidenceFilter: cfg.ConfidenceFilter,
			CapWeighted:      cfg.Weighting == strategyconfig.WeightingMarketCap,
			RankByConfidence: cfg.RankBy == strategyconfig.RankByConfidence,
		}, nil
	case strategyconfig.PolicyLongShort:
		return LongShort{}, nil
	case strategyconfig.PolicyCarryHold:
		return CarryHold{}, nil
	case strategyconfig.PolicyVolatilityWeighted:
		return VolatilityWeighted{StopLoss: cfg.StopLoss, Power: cfg.VolatilityPower}, nil
	case strategyconfig.PolicyTrailingStopLoss:
		return TrailingStopLoss{Threshold: cfg.StopLoss}, nil
	default:
		return nil, fmt.Errorf("unknown selection policy %q", cfg.Name)
	}
}

// NeedsMarketCaps reports whether the policy reads the market-cap table
func NeedsMarketCaps(p Policy) bool {
	_, ok := p.(TopNByMarketCap)
	return ok
}
