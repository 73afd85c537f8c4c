package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wonny/signalbt/internal/contracts"
)

// Recorder exports backtest counters to Prometheus.
// It satisfies backtest.Recorder.
type Recorder struct {
	registry *prometheus.Registry

	PeriodsScored      *prometheus.CounterVec
	PeriodsSkipped     *prometheus.CounterVec
	InstrumentsDropped *prometheus.CounterVec
	Runs               *prometheus.CounterVec
	RunDuration        *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them on a private registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		PeriodsScored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalbt_periods_scored_total",
				Help: "Decision periods scored by strategy",
			},
			[]string{"strategy"},
		),

		PeriodsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalbt_periods_skipped_total",
				Help: "Decision periods skipped by strategy and reason class",
			},
			[]string{"strategy", "reason"},
		),

		InstrumentsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalbt_instruments_dropped_total",
				Help: "Selected instruments dropped for an unavailable forward return",
			},
			[]string{"strategy"},
		),

		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalbt_runs_total",
				Help: "Backtest runs by strategy and result",
			},
			[]string{"strategy", "result"},
		),

		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalbt_run_duration_seconds",
				Help:    "Wall time of one backtest run",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"strategy"},
		),
	}

	r.registry.MustRegister(
		r.PeriodsScored,
		r.PeriodsSkipped,
		r.InstrumentsDropped,
		r.Runs,
		r.RunDuration,
	)
	return r
}

// Registry returns the registry backing /metrics
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) PeriodScored(strategy string) {
	r.PeriodsScored.WithLabelValues(strategy).Inc()
}

// PeriodSkipped keeps label cardinality low by classifying the free-text reason
func (r *Recorder) PeriodSkipped(strategy, reason string) {
	r.PeriodsSkipped.WithLabelValues(strategy, ReasonClass(reason)).Inc()
}

func (r *Recorder) InstrumentDropped(strategy string) {
	r.InstrumentsDropped.WithLabelValues(strategy).Inc()
}

func (r *Recorder) RunFinished(strategy string, elapsed time.Duration, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, contracts.ErrStructural):
		result = "structural"
	default:
		result = "error"
	}
	r.Runs.WithLabelValues(strategy, result).Inc()
	r.RunDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}
