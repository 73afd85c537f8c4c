package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/signalbt/internal/backtest"
)

var _ Sink = (*Repository)(nil)

const postgresSchema = `
CREATE SCHEMA IF NOT EXISTS backtest;

CREATE TABLE IF NOT EXISTS backtest.runs (
	run_id      UUID PRIMARY KEY,
	strategy    TEXT NOT NULL,
	policy      TEXT NOT NULL,
	cadence     TEXT NOT NULL,
	benchmark   TEXT NOT NULL,
	config_hash TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL,
	elapsed_ms  BIGINT NOT NULL,
	scored      INT NOT NULL,
	skipped     INT NOT NULL,
	summary     JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS backtest.series (
	run_id               UUID NOT NULL REFERENCES backtest.runs(run_id) ON DELETE CASCADE,
	period               TEXT NOT NULL,
	strategy_return      DOUBLE PRECISION NOT NULL,
	benchmark_return     DOUBLE PRECISION NOT NULL,
	excess_return        DOUBLE PRECISION NOT NULL,
	cumulative_strategy  DOUBLE PRECISION NOT NULL,
	cumulative_benchmark DOUBLE PRECISION NOT NULL,
	holdings             JSONB NOT NULL,
	PRIMARY KEY (run_id, period)
);
`

// Repository is the Postgres results sink
// ⭐ SSOT: Postgres 결과 저장은 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new results repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the backtest schema and tables when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create backtest schema: %w", err)
	}
	return nil
}

// Save upserts the run and replaces its series rows in one transaction
func (r *Repository) Save(ctx context.Context, res *backtest.Result) error {
	summaryJSON, err := json.Marshal(res.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	holdings := make(map[string][]byte, len(res.Snapshots))
	for _, s := range res.Snapshots {
		b, err := json.Marshal(s.Holdings)
		if err != nil {
			return fmt.Errorf("failed to marshal holdings %s: %w", s.Period, err)
		}
		holdings[string(s.Period)] = b
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO backtest.runs (
			run_id, strategy, policy, cadence, benchmark, config_hash,
			started_at, elapsed_ms, scored, skipped, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (run_id) DO UPDATE SET
			elapsed_ms = EXCLUDED.elapsed_ms,
			scored = EXCLUDED.scored,
			skipped = EXCLUDED.skipped,
			summary = EXCLUDED.summary
	`,
		res.RunID, res.Strategy, res.Policy, res.Cadence, res.Benchmark, res.ConfigHash,
		res.StartedAt, res.Elapsed.Milliseconds(), res.Scored(), len(res.Skipped), summaryJSON,
	)
	batch.Queue(`DELETE FROM backtest.series WHERE run_id = $1`, res.RunID)

	for _, row := range res.Series {
		h := holdings[string(row.Period)]
		if h == nil {
			h = []byte("[]")
		}
		batch.Queue(`
			INSERT INTO backtest.series (
				run_id, period, strategy_return, benchmark_return, excess_return,
				cumulative_strategy, cumulative_benchmark, holdings
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			res.RunID, string(row.Period), row.StrategyReturn, row.BenchmarkReturn, row.ExcessReturn,
			row.CumulativeStrategy, row.CumulativeBenchmark, h,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save run %s: %w", res.RunID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", res.RunID, err)
	}
	return nil
}

// CountRuns returns the number of stored runs for a strategy
func (r *Repository) CountRuns(ctx context.Context, strategy string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM backtest.runs WHERE strategy = $1`, strategy,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}
