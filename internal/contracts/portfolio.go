package contracts

import "math"

// WeightTolerance is the floating tolerance for "weights sum to 1"
const WeightTolerance = 1e-9

// Side is the direction a holding is held in
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short" // realized return sign is inverted
)

// Holding is one weighted instrument in a selection or snapshot
type Holding struct {
	Instrument string  `json:"instrument"`
	Weight     float64 `json:"weight"` // 0.0 ~ 1.0
	Side       Side    `json:"side"`
}

// Selection is what a policy wants to hold during the forward period
// ⭐ 계약: Holdings는 비어 있거나 Weight 합 = 1
type Selection struct {
	Holdings []Holding `json:"holdings"`

	// Held is the carried position set handed to the next period.
	// Only stateful policies fill it.
	Held []string `json:"held,omitempty"`
}

// TotalWeight returns the sum of all holding weights
func (s Selection) TotalWeight() float64 {
	return totalWeight(s.Holdings)
}

// IsEmpty reports whether nothing qualified
func (s Selection) IsEmpty() bool {
	return len(s.Holdings) == 0
}

// EqualWeight builds an equal-weighted long selection over the given instruments
func EqualWeight(instruments []string) Selection {
	if len(instruments) == 0 {
		return Selection{}
	}
	w := 1.0 / float64(len(instruments))
	holdings := make([]Holding, len(instruments))
	for i, inst := range instruments {
		holdings[i] = Holding{Instrument: inst, Weight: w, Side: SideLong}
	}
	return Selection{Holdings: holdings}
}

// Renormalize rescales positive weights to sum to 1, dropping non-positive ones
func Renormalize(holdings []Holding) []Holding {
	total := 0.0
	for _, h := range holdings {
		if h.Weight > 0 {
			total += h.Weight
		}
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil
	}

	out := make([]Holding, 0, len(holdings))
	for _, h := range holdings {
		if h.Weight <= 0 {
			continue
		}
		h.Weight /= total
		out = append(out, h)
	}
	return out
}

// PortfolioSnapshot is one scored period: composition plus realized returns.
// Append-only; never mutated after the evaluator emits it.
type PortfolioSnapshot struct {
	Period             Period           `json:"period"`  // decision period t
	Forward            Period           `json:"forward"` // realized period t+1
	Holdings           []Holding        `json:"holdings"`
	Dropped            []DroppedHolding `json:"dropped,omitempty"` // selected but return unavailable
	StrategyReturn     float64          `json:"strategy_return"`
	BenchmarkReturn    float64          `json:"benchmark_return"`
	BenchmarkAvailable bool             `json:"benchmark_available"`
}

// DroppedHolding is a selected instrument removed before weighting
type DroppedHolding struct {
	Instrument string `json:"instrument"`
	Reason     string `json:"reason"`
}

// TotalWeight returns the sum of all holding weights
func (p PortfolioSnapshot) TotalWeight() float64 {
	return totalWeight(p.Holdings)
}

// WeightsValid reports whether the holdings are empty or sum to 1
func (p PortfolioSnapshot) WeightsValid() bool {
	if len(p.Holdings) == 0 {
		return true
	}
	return math.Abs(p.TotalWeight()-1.0) <= 1e-6
}

// Instruments returns the held instruments in holding order
func (p PortfolioSnapshot) Instruments() []string {
	out := make([]string, len(p.Holdings))
	for i, h := range p.Holdings {
		out[i] = h.Instrument
	}
	return out
}

func totalWeight(holdings []Holding) float64 {
	total := 0.0
	for _, h := range holdings {
		total += h.Weight
	}
	return total
}
