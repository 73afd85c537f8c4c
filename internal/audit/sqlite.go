package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go driver registered as "sqlite"

	"github.com/wonny/signalbt/internal/backtest"
	"github.com/wonny/signalbt/internal/contracts"
)

var _ Sink = (*SQLiteStore)(nil)

// fixed-width so that started_at sorts as text
const storedTime = "2006-01-02T15:04:05.000000000Z"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	strategy    TEXT NOT NULL,
	policy      TEXT NOT NULL,
	cadence     TEXT NOT NULL,
	benchmark   TEXT NOT NULL,
	config_hash TEXT NOT NULL DEFAULT '',
	started_at  TEXT NOT NULL,
	elapsed_ns  INTEGER NOT NULL,
	scored      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	summary     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

CREATE TABLE IF NOT EXISTS series (
	run_id               TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq                  INTEGER NOT NULL,
	period               TEXT NOT NULL,
	strategy_return      REAL NOT NULL,
	benchmark_return     REAL NOT NULL,
	excess_return        REAL NOT NULL,
	cumulative_strategy  REAL NOT NULL,
	cumulative_benchmark REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS snapshots (
	run_id  TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq     INTEGER NOT NULL,
	period  TEXT NOT NULL,
	payload TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS skipped (
	run_id  TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq     INTEGER NOT NULL,
	period  TEXT NOT NULL,
	forward TEXT NOT NULL,
	reason  TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// SQLiteStore keeps run results in a local SQLite file; the API reads from it
// ⭐ SSOT: 백테스트 결과 저장/조회는 여기서만
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the results database and applies the schema
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save stores a run atomically; saving the same run ID again replaces it
func (s *SQLiteStore) Save(ctx context.Context, res *backtest.Result) error {
	summary, err := json.Marshal(res.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, res.RunID); err != nil {
		return fmt.Errorf("failed to replace run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, strategy, policy, cadence, benchmark, config_hash,
			started_at, elapsed_ns, scored, skipped, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Strategy, res.Policy, res.Cadence, res.Benchmark, res.ConfigHash,
		res.StartedAt.UTC().Format(storedTime), int64(res.Elapsed),
		res.Scored(), len(res.Skipped), string(summary),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for i, row := range res.Series {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO series (run_id, seq, period, strategy_return, benchmark_return,
				excess_return, cumulative_strategy, cumulative_benchmark)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID, i, string(row.Period), row.StrategyReturn, row.BenchmarkReturn,
			row.ExcessReturn, row.CumulativeStrategy, row.CumulativeBenchmark,
		)
		if err != nil {
			return fmt.Errorf("failed to save series row %s: %w", row.Period, err)
		}
	}

	for i, snap := range res.Snapshots {
		payload, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot %s: %w", snap.Period, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO snapshots (run_id, seq, period, payload) VALUES (?, ?, ?, ?)`,
			res.RunID, i, string(snap.Period), string(payload),
		)
		if err != nil {
			return fmt.Errorf("failed to save snapshot %s: %w", snap.Period, err)
		}
	}

	for i, sk := range res.Skipped {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO skipped (run_id, seq, period, forward, reason) VALUES (?, ?, ?, ?, ?)`,
			res.RunID, i, string(sk.Period), string(sk.Forward), sk.Reason,
		)
		if err != nil {
			return fmt.Errorf("failed to save skipped %s: %w", sk.Period, err)
		}
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const runColumns = `run_id, strategy, policy, cadence, benchmark, config_hash,
	started_at, elapsed_ns, scored, skipped, summary`

func scanRun(row rowScanner) (RunRecord, error) {
	var (
		rec       RunRecord
		startedAt string
		elapsed   int64
		summary   string
	)
	err := row.Scan(&rec.RunID, &rec.Strategy, &rec.Policy, &rec.Cadence, &rec.Benchmark,
		&rec.ConfigHash, &startedAt, &elapsed, &rec.Scored, &rec.Skipped, &summary)
	if err != nil {
		return RunRecord{}, err
	}

	rec.StartedAt, err = time.Parse(storedTime, startedAt)
	if err != nil {
		return RunRecord{}, fmt.Errorf("run %s started_at: %w", rec.RunID, err)
	}
	rec.Elapsed = time.Duration(elapsed)
	if err := json.Unmarshal([]byte(summary), &rec.Summary); err != nil {
		return RunRecord{}, fmt.Errorf("run %s summary: %w", rec.RunID, err)
	}
	return rec, nil
}

// ListRuns returns the most recent runs first; limit <= 0 means all
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, run_id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunRecord, 0)
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// GetRun returns one run or ErrRunNotFound
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &rec, nil
}

// Series returns the stored return series of a run in period order
func (s *SQLiteStore) Series(ctx context.Context, runID string) ([]contracts.SeriesRow, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT period, strategy_return, benchmark_return, excess_return,
			cumulative_strategy, cumulative_benchmark
		FROM series WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get series: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.SeriesRow, 0)
	for rows.Next() {
		var r contracts.SeriesRow
		var period string
		if err := rows.Scan(&period, &r.StrategyReturn, &r.BenchmarkReturn, &r.ExcessReturn,
			&r.CumulativeStrategy, &r.CumulativeBenchmark); err != nil {
			return nil, err
		}
		r.Period = contracts.Period(period)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Portfolio returns the stored snapshots of a run in period order
func (s *SQLiteStore) Portfolio(ctx context.Context, runID string) ([]contracts.PortfolioSnapshot, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM snapshots WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.PortfolioSnapshot, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var snap contracts.PortfolioSnapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Skipped returns the excluded periods of a run
func (s *SQLiteStore) Skipped(ctx context.Context, runID string) ([]contracts.SkippedPeriod, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT period, forward, reason FROM skipped WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get skipped periods: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.SkippedPeriod, 0)
	for rows.Next() {
		var period, forward, reason string
		if err := rows.Scan(&period, &forward, &reason); err != nil {
			return nil, err
		}
		out = append(out, contracts.SkippedPeriod{
			Period:  contracts.Period(period),
			Forward: contracts.Period(forward),
			Reason:  reason,
		})
	}
	return out, rows.Err()
}

// DeleteRunsBefore removes runs started before cutoff along with their rows
func (s *SQLiteStore) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE started_at < ?`, cutoff.UTC().Format(storedTime))
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}
