package audit

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/signalbt/internal/backtest"
	"github.com/wonny/signalbt/internal/contracts"
)

// ErrRunNotFound is returned by readers for an unknown run ID
var ErrRunNotFound = errors.New("run not found")

// Sink persists a completed backtest result
type Sink interface {
	Save(ctx context.Context, res *backtest.Result) error
}

// RunRecord is the listing view of a persisted run
type RunRecord struct {
	RunID      string                       `json:"run_id"`
	Strategy   string                       `json:"strategy"`
	Policy     string                       `json:"policy"`
	Cadence    string                       `json:"cadence"`
	Benchmark  string                       `json:"benchmark"`
	ConfigHash string                       `json:"config_hash,omitempty"`
	StartedAt  time.Time                    `json:"started_at"`
	Elapsed    time.Duration                `json:"elapsed"`
	Scored     int                          `json:"scored"`
	Skipped    int                          `json:"skipped"`
	Summary    contracts.PerformanceSummary `json:"summary"`
}

// RecordOf extracts the listing view of a result
func RecordOf(res *backtest.Result) RunRecord {
	return RunRecord{
		RunID:      res.RunID,
		Strategy:   res.Strategy,
		Policy:     res.Policy,
		Cadence:    res.Cadence,
		Benchmark:  res.Benchmark,
		ConfigHash: res.ConfigHash,
		StartedAt:  res.StartedAt,
		Elapsed:    res.Elapsed,
		Scored:     res.Scored(),
		Skipped:    len(res.Skipped),
		Summary:    res.Summary,
	}
}

// Multi saves to every sink; all sinks are attempted and their errors joined
type Multi []Sink

func (m Multi) Save(ctx context.Context, res *backtest.Result) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
