package contracts

import (
	"sort"
	"time"
)

// PriceBar is one daily sample inside a period window
type PriceBar struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	High   float64   `json:"high,omitempty"`
	Low    float64   `json:"low,omitempty"`
	Volume int64     `json:"volume,omitempty"`
}

// PriceSeries is the close-price series of one instrument restricted to one period
type PriceSeries struct {
	Instrument string     `json:"instrument"`
	Period     Period     `json:"period"`
	Bars       []PriceBar `json:"bars"`
}

// Sort orders bars ascending by date (stable for duplicate dates)
func (s *PriceSeries) Sort() {
	sort.SliceStable(s.Bars, func(i, j int) bool {
		return s.Bars[i].Date.Before(s.Bars[j].Date)
	})
}

// Closes returns the close prices in bar order
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Len returns the number of samples
func (s *PriceSeries) Len() int {
	return len(s.Bars)
}

// SeriesStats are the forward-period statistics selection policies may consult
type SeriesStats struct {
	Return      float64 `json:"return"`       // (last - first) / first
	Volatility  float64 `json:"volatility"`   // population stdev of bar-to-bar returns
	MaxDrawdown float64 `json:"max_drawdown"` // peak-to-trough decline, positive fraction
	Samples     int     `json:"samples"`
}
