// Package store persists price history, optimization runs and indicator
// signals in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS frontier`,
	`CREATE TABLE IF NOT EXISTS frontier.daily_prices (
		symbol      TEXT             NOT NULL,
		trade_date  DATE             NOT NULL,
		open_price  DOUBLE PRECISION NOT NULL DEFAULT 0,
		high_price  DOUBLE PRECISION NOT NULL DEFAULT 0,
		low_price   DOUBLE PRECISION NOT NULL DEFAULT 0,
		close_price DOUBLE PRECISION NOT NULL,
		volume      BIGINT           NOT NULL DEFAULT 0,
		updated_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		PRIMARY KEY (symbol, trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS frontier.runs (
		run_id        UUID             PRIMARY KEY,
		created_at    TIMESTAMPTZ      NOT NULL,
		profile_name  TEXT             NOT NULL DEFAULT '',
		universe      TEXT[]           NOT NULL,
		annual_return DOUBLE PRECISION NOT NULL,
		annual_risk   DOUBLE PRECISION NOT NULL,
		sharpe        DOUBLE PRECISION NOT NULL,
		bundle        JSONB            NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS runs_created_at_idx ON frontier.runs (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS frontier.signals (
		symbol      TEXT             NOT NULL,
		indicator   TEXT             NOT NULL,
		signal_date DATE             NOT NULL,
		action      TEXT             NOT NULL,
		price       DOUBLE PRECISION NOT NULL,
		readings    JSONB,
		created_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		PRIMARY KEY (symbol, indicator, signal_date)
	)`,
}

// EnsureSchema creates the tables if they do not exist
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
