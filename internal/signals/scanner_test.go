package signals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/frontier/internal/contracts"
)

type staticProvider map[string][]contracts.Bar

func (p staticProvider) FetchBars(_ context.Context, symbol string, _, _ time.Time) ([]contracts.Bar, error) {
	bars, ok := p[symbol]
	if !ok {
		return nil, contracts.NewDataUnavailable(symbol, "unknown", nil)
	}
	return bars, nil
}

type recordingSink struct {
	saved    []contracts.IndicatorSignal
	notified []contracts.IndicatorSignal
}

func (r *recordingSink) SaveSignals(_ context.Context, s []contracts.IndicatorSignal) error {
	r.saved = append(r.saved, s...)
	return nil
}

func (r *recordingSink) NotifyRun(context.Context, *contracts.Bundle) error { return nil }

func (r *recordingSink) NotifySignals(_ context.Context, s []contracts.IndicatorSignal) error {
	r.notified = append(r.notified, s...)
	return errors.New("telegram down")
}

func bar(i int, close float64) contracts.Bar {
	return contracts.Bar{
		Date:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
		High:  close + 1,
		Low:   close - 1,
		Close: close,
	}
}

// breakdown: flat, breakout, hold, crash on the final bar
func breakdownBars() []contracts.Bar {
	var bars []contracts.Bar
	for i := 0; i < 20; i++ {
		bars = append(bars, bar(i, 100))
	}
	for i := 20; i < 24; i++ {
		bars = append(bars, bar(i, 110))
	}
	return append(bars, bar(24, 95))
}

func flatBars(n int) []contracts.Bar {
	bars := make([]contracts.Bar, n)
	for i := range bars {
		bars[i] = bar(i, 50)
	}
	return bars
}

func TestEvaluate(t *testing.T) {
	sig, err := Evaluate("alphatrend", "THYAO", breakdownBars())
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, contracts.ActionSell, sig.Action)
	assert.Equal(t, contracts.IndicatorAlphaTrend, sig.Indicator)
	assert.Equal(t, 95.0, sig.Price)

	sig, err = Evaluate(contracts.IndicatorAlphaTrend, "FLAT", flatBars(30))
	require.NoError(t, err)
	assert.Nil(t, sig)

	_, err = Evaluate("rsi", "X", flatBars(30))
	assert.ErrorIs(t, err, contracts.ErrPreconditionViolated)
}

func TestScan(t *testing.T) {
	provider := staticProvider{
		"THYAO": breakdownBars(),
		"GARAN": flatBars(30),
		"SHORT": flatBars(3),
	}
	sink := &recordingSink{}

	s := NewScanner(provider, sink, sink, 2, nil).WithLookback(60)
	got, err := s.Scan(context.Background(), contracts.IndicatorAlphaTrend,
		[]string{"GARAN", "THYAO", "SHORT", "MISSING"}, time.Date(2024, 5, 25, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err, "per-symbol failures and notifier errors are not fatal")
	require.Len(t, got, 1)
	assert.Equal(t, "THYAO", got[0].Symbol)
	assert.Len(t, sink.saved, 1)
	assert.Len(t, sink.notified, 1)
}

func TestScan_NoSymbols(t *testing.T) {
	_, err := NewScanner(staticProvider{}, nil, nil, 1, nil).Scan(context.Background(), "MACD", nil, time.Now())
	assert.ErrorIs(t, err, contracts.ErrPreconditionViolated)
}
