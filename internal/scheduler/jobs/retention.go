package jobs

import (
	"context"
	"time"

	"github.com/wonny/signalbt/pkg/logger"
)

// RunPruner deletes stored runs older than a cutoff
type RunPruner interface {
	DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionJob prunes old runs from the results store
type RetentionJob struct {
	store  RunPruner
	keep   time.Duration
	now    func() time.Time
	logger *logger.Logger
}

// NewRetentionJob keeps runs younger than keep
func NewRetentionJob(store RunPruner, keep time.Duration, log *logger.Logger) *RetentionJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &RetentionJob{store: store, keep: keep, now: time.Now, logger: log}
}

func (j *RetentionJob) Name() string {
	return "results_retention"
}

// Schedule returns the cron schedule (daily at 03:00)
func (j *RetentionJob) Schedule() string {
	return "0 0 3 * * *"
}

func (j *RetentionJob) Run(ctx context.Context) error {
	removed, err := j.store.DeleteRunsBefore(ctx, j.now().Add(-j.keep))
	if err != nil {
		return err
	}
	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Old runs pruned")
	}
	return nil
}
