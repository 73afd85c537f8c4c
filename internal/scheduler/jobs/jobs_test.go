package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalbt/internal/backtest"
)

type memorySink struct{ saved []*backtest.Result }

func (m *memorySink) Save(_ context.Context, res *backtest.Result) error {
	m.saved = append(m.saved, res)
	return nil
}

func TestBacktestJob(t *testing.T) {
	sink := &memorySink{}
	runner := RunnerFunc(func(context.Context) (*backtest.Result, error) {
		return &backtest.Result{RunID: "r1"}, nil
	})

	job := NewBacktestJob("buy_all_monthly", "0 0 18 1 * *", runner, sink, nil)
	assert.Equal(t, "backtest_buy_all_monthly", job.Name())
	assert.Equal(t, "0 0 18 1 * *", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, sink.saved, 1)
	assert.Equal(t, "r1", sink.saved[0].RunID)
}

func TestBacktestJob_RunnerError(t *testing.T) {
	boom := errors.New("boom")
	job := NewBacktestJob("x", "@daily", RunnerFunc(func(context.Context) (*backtest.Result, error) {
		return nil, boom
	}), nil, nil)

	err := job.Run(context.Background())
	assert.True(t, errors.Is(err, boom))
}

type pruner struct{ cutoff time.Time }

func (p *pruner) DeleteRunsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoff = cutoff
	return 2, nil
}

func TestRetentionJob(t *testing.T) {
	p := &pruner{}
	job := NewRetentionJob(p, 30*24*time.Hour, nil)
	now := time.Date(2024, 7, 1, 3, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.AddDate(0, 0, -30), p.cutoff)
}
