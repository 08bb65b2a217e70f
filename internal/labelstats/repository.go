package labelstats

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
)

// Schema creates the tables used by the repository
const Schema = `
CREATE SCHEMA IF NOT EXISTS labels;

CREATE TABLE IF NOT EXISTS labels.sweep_runs (
	run_id          UUID PRIMARY KEY,
	fingerprint     TEXT NOT NULL,
	symbol          TEXT NOT NULL DEFAULT '',
	rows            INTEGER NOT NULL,
	bars_per_minute DOUBLE PRECISION NOT NULL,
	best_config     TEXT NOT NULL DEFAULT '',
	skipped         INTEGER NOT NULL DEFAULT 0,
	from_cache      BOOLEAN NOT NULL DEFAULT FALSE,
	started_at      TIMESTAMPTZ NOT NULL,
	elapsed_ms      BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS labels.sweep_stats (
	run_id          UUID NOT NULL REFERENCES labels.sweep_runs(run_id) ON DELETE CASCADE,
	fingerprint     TEXT NOT NULL,
	config_name     TEXT NOT NULL,
	horizon_bars    INTEGER NOT NULL,
	long_wins       INTEGER NOT NULL,
	long_losses     INTEGER NOT NULL,
	long_timeouts   INTEGER NOT NULL,
	short_wins      INTEGER NOT NULL,
	short_losses    INTEGER NOT NULL,
	short_timeouts  INTEGER NOT NULL,
	long_win_rate   DOUBLE PRECISION NOT NULL,
	short_win_rate  DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, config_name)
);

CREATE INDEX IF NOT EXISTS idx_sweep_stats_fingerprint ON labels.sweep_stats (fingerprint);
`

// Repository stores sweep statistics (contracts.SweepStatsRepository)
// ⭐ SSOT: 스윕 통계 저장소는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new stats repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the labels schema if missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure labels schema: %w", err)
	}
	return nil
}

// SaveRun stores a run and its per-config statistics in one transaction
func (r *Repository) SaveRun(ctx context.Context, run *contracts.SweepRun) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	runQuery := `
		INSERT INTO labels.sweep_runs
			(run_id, fingerprint, symbol, rows, bars_per_minute, best_config, skipped, from_cache, started_at, elapsed_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	if _, err := tx.Exec(ctx, runQuery,
		run.RunID, run.Fingerprint, run.Symbol, run.Rows, run.BarsPerMinute,
		run.Best, run.Skipped, run.FromCache, run.StartedAt, run.Elapsed.Milliseconds(),
	); err != nil {
		return fmt.Errorf("insert sweep run: %w", err)
	}

	if len(run.Stats) > 0 {
		batch := &pgx.Batch{}
		statsQuery := `
			INSERT INTO labels.sweep_stats
				(run_id, fingerprint, config_name, horizon_bars,
				 long_wins, long_losses, long_timeouts,
				 short_wins, short_losses, short_timeouts,
				 long_win_rate, short_win_rate)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

		for _, s := range run.Stats {
			batch.Queue(statsQuery, run.RunID, run.Fingerprint, s.Name, s.HorizonBars,
				s.LongWins, s.LongLosses, s.LongTimeouts,
				s.ShortWins, s.ShortLosses, s.ShortTimeouts,
				s.LongWinRate, s.ShortWinRate)
		}

		br := tx.SendBatch(ctx, batch)
		for range run.Stats {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert sweep stats: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close batch: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListByFingerprint returns the statistics of the latest run for a fingerprint
func (r *Repository) ListByFingerprint(ctx context.Context, fingerprint string) ([]contracts.ConfigStats, error) {
	query := `
		SELECT s.config_name, s.horizon_bars,
			   s.long_wins, s.long_losses, s.long_timeouts,
			   s.short_wins, s.short_losses, s.short_timeouts,
			   s.long_win_rate, s.short_win_rate
		FROM labels.sweep_stats s
		WHERE s.run_id = (
			SELECT run_id FROM labels.sweep_runs
			WHERE fingerprint = $1
			ORDER BY started_at DESC
			LIMIT 1
		)
		ORDER BY s.config_name`

	rows, err := r.pool.Query(ctx, query, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query sweep stats: %w", err)
	}
	defer rows.Close()

	var stats []contracts.ConfigStats
	for rows.Next() {
		var s contracts.ConfigStats
		if err := rows.Scan(&s.Name, &s.HorizonBars,
			&s.LongWins, &s.LongLosses, &s.LongTimeouts,
			&s.ShortWins, &s.ShortLosses, &s.ShortTimeouts,
			&s.LongWinRate, &s.ShortWinRate,
		); err != nil {
			return nil, fmt.Errorf("scan sweep stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
