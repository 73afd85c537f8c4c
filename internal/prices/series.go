package prices

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/signalbt/internal/contracts"
)

// Return is (close_last - close_first) / close_first over a sorted series.
// ok is false for fewer than 2 samples or a non-positive first close.
func Return(series *contracts.PriceSeries) (float64, bool) {
	if series == nil || series.Len() < 2 {
		return 0, false
	}
	first := series.Bars[0].Close
	last := series.Bars[series.Len()-1].Close
	if first <= 0 {
		return 0, false
	}

	r := (last - first) / first
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// BarReturns converts closes to bar-to-bar percentage changes
func BarReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	return returns
}

// Volatility is the population standard deviation of bar-to-bar returns
func Volatility(series *contracts.PriceSeries) float64 {
	returns := BarReturns(series.Closes())
	if len(returns) == 0 {
		return 0
	}
	return stat.PopStdDev(returns, nil)
}

// MaxDrawdown is the largest peak-to-trough decline of the closes
// as a positive fraction (0.07 = 7% below the running peak)
func MaxDrawdown(series *contracts.PriceSeries) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, b := range series.Bars {
		if b.Close > peak {
			peak = b.Close
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - b.Close) / peak; dd > worst {
			worst = dd
		}
	}
	return worst
}

// Stats computes the forward-period statistics policies consult
func Stats(series *contracts.PriceSeries) (contracts.SeriesStats, bool) {
	r, ok := Return(series)
	if !ok {
		return contracts.SeriesStats{}, false
	}
	return contracts.SeriesStats{
		Return:      r,
		Volatility:  Volatility(series),
		MaxDrawdown: MaxDrawdown(series),
		Samples:     series.Len(),
	}, true
}
