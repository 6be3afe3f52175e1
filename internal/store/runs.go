package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/frontier/internal/contracts"
)

// RunRepository stores finished optimization bundles as JSONB
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run repository
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// SaveRun inserts or replaces a bundle
func (r *RunRepository) SaveRun(ctx context.Context, b *contracts.Bundle) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}

	query := `
		INSERT INTO frontier.runs (run_id, created_at, profile_name, universe, annual_return, annual_risk, sharpe, bundle)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO UPDATE SET
			bundle = EXCLUDED.bundle,
			annual_return = EXCLUDED.annual_return,
			annual_risk = EXCLUDED.annual_risk,
			sharpe = EXCLUDED.sharpe
	`

	_, err = r.pool.Exec(ctx, query,
		b.RunID, b.CreatedAt, b.ProfileName, b.Universe,
		b.Metrics.AnnualReturn, b.Metrics.AnnualRisk, b.Metrics.Sharpe,
		payload,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", b.RunID, err)
	}
	return nil
}

// GetRun loads a bundle by id
func (r *RunRepository) GetRun(ctx context.Context, runID string) (*contracts.Bundle, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT bundle FROM frontier.runs WHERE run_id = $1`, runID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}

	var b contracts.Bundle
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return &b, nil
}

// ListRuns returns the newest runs first
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]contracts.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id::text, created_at, universe, annual_return, annual_risk, sharpe
		FROM frontier.runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []contracts.RunSummary
	for rows.Next() {
		var s contracts.RunSummary
		if err := rows.Scan(&s.RunID, &s.CreatedAt, &s.Universe, &s.AnnualReturn, &s.AnnualRisk, &s.Sharpe); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
