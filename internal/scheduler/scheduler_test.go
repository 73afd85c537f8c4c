package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalbt/internal/contracts"
)

type stubJob struct {
	name     string
	schedule string
	calls    atomic.Int32
	errs     []error
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(context.Context) error {
	n := int(j.calls.Add(1)) - 1
	if n < len(j.errs) {
		return j.errs[n]
	}
	return nil
}

func newTestScheduler() *Scheduler {
	s := New(nil)
	s.SetRetry(2, 0)
	return s
}

func TestScheduler_AddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "0 0 18 * * *"}))
	assert.Error(t, s.AddJob(&stubJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&stubJob{name: "b", schedule: "not a schedule"}))
	assert.Equal(t, []string{"a"}, s.Jobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Empty(t, s.Jobs())
}

func TestScheduler_RetriesTransientErrors(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "flaky", schedule: "@daily", errs: []error{errors.New("io timeout")}}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunNow("flaky")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Attempts)
	assert.Empty(t, res.Error)
}

func TestScheduler_StructuralErrorNotRetried(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{
		name: "broken", schedule: "@daily",
		errs: []error{fmt.Errorf("no decision periods found: %w", contracts.ErrStructural)},
	}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunNow("broken")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, int32(1), job.calls.Load())

	stats := s.Stats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 0, stats.SuccessCount)
	assert.Contains(t, stats.LastError, "no decision periods")
}

func TestScheduler_GivesUpAfterRetries(t *testing.T) {
	s := newTestScheduler()
	boom := errors.New("boom")
	job := &stubJob{name: "down", schedule: "@daily", errs: []error{boom, boom, boom, boom}}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunNow("down")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.Attempts)

	h, err := s.History("down")
	require.NoError(t, err)
	assert.Equal(t, 0.0, h.SuccessRate())
}

func TestScheduler_NextRun(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&stubJob{name: "n", schedule: "@every 1h"}))
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		next, ok := s.NextRun("n")
		return ok && next.After(time.Now())
	}, time.Second, 10*time.Millisecond)

	_, ok := s.NextRun("missing")
	assert.False(t, ok)
}

func TestJobHistory_Trims(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+5; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historyLimit)
	assert.Len(t, h.Latest(3), 3)
	assert.Empty(t, (&JobHistory{}).Latest(3))
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)
}
