package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/signalbt/internal/audit"
	"github.com/wonny/signalbt/internal/backtest"
	"github.com/wonny/signalbt/pkg/logger"
)

// Runner executes one configured backtest
type Runner interface {
	Run(ctx context.Context) (*backtest.Result, error)
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context) (*backtest.Result, error)

func (f RunnerFunc) Run(ctx context.Context) (*backtest.Result, error) {
	return f(ctx)
}

// BacktestJob re-runs a backtest on a schedule and persists each result
type BacktestJob struct {
	name     string
	schedule string
	runner   Runner
	sink     audit.Sink
	logger   *logger.Logger
}

// NewBacktestJob creates a scheduled backtest; sink may be nil
func NewBacktestJob(name, schedule string, runner Runner, sink audit.Sink, log *logger.Logger) *BacktestJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &BacktestJob{
		name:     name,
		schedule: schedule,
		runner:   runner,
		sink:     sink,
		logger:   log,
	}
}

func (j *BacktestJob) Name() string {
	return "backtest_" + j.name
}

func (j *BacktestJob) Schedule() string {
	return j.schedule
}

// Run executes the backtest and saves the result
func (j *BacktestJob) Run(ctx context.Context) error {
	res, err := j.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("backtest %s: %w", j.name, err)
	}

	if j.sink != nil {
		if err := j.sink.Save(ctx, res); err != nil {
			return fmt.Errorf("save run %s: %w", res.RunID, err)
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"job":          j.Name(),
		"run_id":       res.RunID,
		"scored":       res.Scored(),
		"skipped":      len(res.Skipped),
		"final_return": fmt.Sprintf("%.2f%%", res.Summary.FinalReturn*100),
	}).Info("Scheduled backtest completed")

	return nil
}
