package contracts

import (
	"context"
	"time"
)

// PriceProvider supplies daily bars for one asset over an inclusive range.
// A provider failing for one asset must not affect the others.
type PriceProvider interface {
	FetchBars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error)
}

// PriceStore persists bars (price history collection)
type PriceStore interface {
	SaveBars(ctx context.Context, symbol string, bars []Bar) (int, error)
}

// RunRepository persists finished optimization runs
type RunRepository interface {
	SaveRun(ctx context.Context, b *Bundle) error
	GetRun(ctx context.Context, runID string) (*Bundle, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// SignalRepository persists indicator signals
type SignalRepository interface {
	SaveSignals(ctx context.Context, signals []IndicatorSignal) error
}

// Notifier delivers a finished bundle (chat message, log line, ...)
type Notifier interface {
	NotifyRun(ctx context.Context, b *Bundle) error
	NotifySignals(ctx context.Context, signals []IndicatorSignal) error
}
