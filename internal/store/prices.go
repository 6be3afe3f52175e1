package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/frontier/internal/contracts"
)

// PriceRepository stores daily bars
// ⭐ SSOT: implements contracts.PriceStore and contracts.PriceProvider
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// SaveBars upserts bars in a single batch and returns the number written
func (r *PriceRepository) SaveBars(ctx context.Context, symbol string, bars []contracts.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO frontier.daily_prices (symbol, trade_date, open_price, high_price, low_price, close_price, volume, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(query, symbol, contracts.Day(b.Date), b.Open, b.High, b.Low, b.Close, b.Volume)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	saved := 0
	for range bars {
		tag, err := results.Exec()
		if err != nil {
			return saved, fmt.Errorf("save bars %s: %w", symbol, err)
		}
		saved += int(tag.RowsAffected())
	}
	return saved, nil
}

// FetchBars reads stored bars for symbol within [from, to], oldest first
func (r *PriceRepository) FetchBars(ctx context.Context, symbol string, from, to time.Time) ([]contracts.Bar, error) {
	query := `
		SELECT trade_date, open_price, high_price, low_price, close_price, volume
		FROM frontier.daily_prices
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, contracts.Day(from), contracts.Day(to))
	if err != nil {
		return nil, fmt.Errorf("query bars %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []contracts.Bar
	for rows.Next() {
		var b contracts.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Date = contracts.Day(b.Date)
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LatestDate returns the most recent stored trade date for symbol
func (r *PriceRepository) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT MAX(trade_date) FROM frontier.daily_prices WHERE symbol = $1`, symbol,
	).Scan(&latest)
	if err != nil {
		return time.Time{}, err
	}
	if latest == nil {
		return time.Time{}, ErrNotFound
	}
	return contracts.Day(*latest), nil
}
