package series

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
)

// Repository loads bar series from Postgres (contracts.SeriesSource)
// ⭐ SSOT: 분봉 가격 조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new series repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Load returns the bars of symbol in [from, to], ordered by time
func (r *Repository) Load(ctx context.Context, symbol string, from, to time.Time) (*contracts.PriceSeries, error) {
	query := `
		SELECT bar_time, high_price, low_price, close_price
		FROM data.intraday_bars
		WHERE symbol = $1 AND bar_time BETWEEN $2 AND $3
		ORDER BY bar_time ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("query intraday bars: %w", err)
	}
	defer rows.Close()

	s := &contracts.PriceSeries{Symbol: symbol}
	for rows.Next() {
		var (
			ts              time.Time
			high, low, last float64
		)
		if err := rows.Scan(&ts, &high, &low, &last); err != nil {
			return nil, fmt.Errorf("scan intraday bar: %w", err)
		}
		s.Time = append(s.Time, ts.UTC())
		s.High = append(s.High, high)
		s.Low = append(s.Low, low)
		s.Close = append(s.Close, last)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intraday bars: %w", err)
	}

	if len(s.Close) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s between %s and %s", contracts.ErrEmptySeries,
			symbol, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return s, nil
}

// Count returns the number of stored bars for symbol
func (r *Repository) Count(ctx context.Context, symbol string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM data.intraday_bars WHERE symbol = $1`

	if err := r.pool.QueryRow(ctx, query, symbol).Scan(&count); err != nil {
		return 0, fmt.Errorf("count intraday bars: %w", err)
	}
	return count, nil
}
