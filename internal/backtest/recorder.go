package backtest

import "time"

// Recorder receives run counters; internal/metrics provides the Prometheus one
type Recorder interface {
	PeriodScored(strategy string)
	PeriodSkipped(strategy, reason string)
	InstrumentDropped(strategy string)
	RunFinished(strategy string, elapsed time.Duration, err error)
}

// NopRecorder discards everything
type NopRecorder struct{}

func (NopRecorder) PeriodScored(string)                      {}
func (NopRecorder) PeriodSkipped(string, string)             {}
func (NopRecorder) InstrumentDropped(string)                 {}
func (NopRecorder) RunFinished(string, time.Duration, error) {}
