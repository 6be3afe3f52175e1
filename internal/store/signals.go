package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/frontier/internal/contracts"
)

// SignalRepository stores indicator crossovers
type SignalRepository struct {
	pool *pgxpool.Pool
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(pool *pgxpool.Pool) *SignalRepository {
	return &SignalRepository{pool: pool}
}

// SaveSignals upserts signals keyed by (symbol, indicator, date)
func (r *SignalRepository) SaveSignals(ctx context.Context, signals []contracts.IndicatorSignal) error {
	if len(signals) == 0 {
		return nil
	}

	query := `
		INSERT INTO frontier.signals (symbol, indicator, signal_date, action, price, readings)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol, indicator, signal_date) DO UPDATE SET
			action = EXCLUDED.action,
			price = EXCLUDED.price,
			readings = EXCLUDED.readings
	`

	batch := &pgx.Batch{}
	for _, s := range signals {
		readings, err := json.Marshal(s.Values)
		if err != nil {
			return fmt.Errorf("marshal readings: %w", err)
		}
		batch.Queue(query, s.Symbol, s.Indicator, contracts.Day(s.Date), string(s.Action), s.Price, readings)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for _, s := range signals {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save signal %s/%s: %w", s.Symbol, s.Indicator, err)
		}
	}
	return nil
}

// ListSignals returns the most recent signals, newest first
func (r *SignalRepository) ListSignals(ctx context.Context, limit int) ([]contracts.IndicatorSignal, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT symbol, indicator, signal_date, action, price, readings
		FROM frontier.signals
		ORDER BY signal_date DESC, symbol
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	defer rows.Close()

	var out []contracts.IndicatorSignal
	for rows.Next() {
		var (
			s        contracts.IndicatorSignal
			action   string
			readings []byte
		)
		if err := rows.Scan(&s.Symbol, &s.Indicator, &s.Date, &action, &s.Price, &readings); err != nil {
			return nil, err
		}
		s.Action = contracts.Action(action)
		if len(readings) > 0 {
			if err := json.Unmarshal(readings, &s.Values); err != nil {
				return nil, fmt.Errorf("decode readings: %w", err)
			}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
