package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalbt/internal/backtest"
	"github.com/wonny/signalbt/internal/contracts"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	res := sampleResult("11111111-1111-1111-1111-111111111111")

	require.NoError(t, store.Save(ctx, res))

	rec, err := store.GetRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, RecordOf(res).Summary, rec.Summary)
	assert.Equal(t, 3, rec.Scored)
	assert.Equal(t, 1, rec.Skipped)
	assert.True(t, res.StartedAt.Equal(rec.StartedAt))
	assert.Equal(t, res.Elapsed, rec.Elapsed)

	series, err := store.Series(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Series, series)

	snaps, err := store.Portfolio(ctx, res.RunID)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, []contracts.DroppedHolding{{Instrument: "WIPRO", Reason: "missing price file"}}, snaps[2].Dropped)
	assert.Equal(t, res.Snapshots[0].Holdings, snaps[0].Holdings)

	skipped, err := store.Skipped(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Skipped, skipped)
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	res := sampleResult("run-a")

	require.NoError(t, store.Save(ctx, res))
	res.Series = res.Series[:1]
	res.Snapshots = res.Snapshots[:1]
	require.NoError(t, store.Save(ctx, res))

	series, err := store.Series(ctx, "run-a")
	require.NoError(t, err)
	assert.Len(t, series, 1)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSQLiteStore_ListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	older := sampleResult("run-old")
	newer := sampleResult("run-new")
	newer.StartedAt = older.StartedAt.Add(time.Hour)

	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].RunID)

	limited, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.GetRun(ctx, "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))

	_, err = store.Series(ctx, "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

type recordingSink struct {
	saved []string
	err   error
}

func (s *recordingSink) Save(_ context.Context, res *backtest.Result) error {
	s.saved = append(s.saved, res.RunID)
	return s.err
}

func TestMulti_AttemptsEverySink(t *testing.T) {
	first := &recordingSink{err: errors.New("disk full")}
	second := &recordingSink{}

	err := Multi{first, second}.Save(context.Background(), sampleResult("run-m"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, []string{"run-m"}, second.saved)
}

func TestSQLiteStore_DeleteRunsBefore(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	old := sampleResult("run-old")
	fresh := sampleResult("run-fresh")
	fresh.StartedAt = old.StartedAt.Add(48 * time.Hour)
	require.NoError(t, store.Save(ctx, old))
	require.NoError(t, store.Save(ctx, fresh))

	removed, err := store.DeleteRunsBefore(ctx, old.StartedAt.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = store.Series(ctx, "run-old")
	assert.True(t, errors.Is(err, ErrRunNotFound))

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-fresh", runs[0].RunID)
}
