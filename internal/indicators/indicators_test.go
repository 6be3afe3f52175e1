package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/frontier/internal/contracts"
)

func flatBar(i int, close float64) contracts.Bar {
	return contracts.Bar{
		Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
		Open:  close,
		High:  close + 1,
		Low:   close - 1,
		Close: close,
	}
}

func TestMACD_Lookback(t *testing.T) {
	closes := make([]float64, 33)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	_, err := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)

	closes = append(closes, 133)
	s, err := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(s.MACD[32]))
	assert.False(t, math.IsNaN(s.MACD[33]))
	assert.InDelta(t, s.MACD[33]-s.Signal[33], s.Histogram[33], 1e-12)

	_, err = MACD(closes, 26, 12, 9)
	assert.ErrorIs(t, err, contracts.ErrPreconditionViolated)
}

func TestMACD_TrendFlipsOnReversal(t *testing.T) {
	// accelerating rise, then a steady slide
	var closes []float64
	for i := 0; i < 60; i++ {
		closes = append(closes, 100+0.05*float64(i*i))
	}
	peak := closes[len(closes)-1]
	for i := 1; i <= 40; i++ {
		closes = append(closes, peak-3*float64(i))
	}

	s, err := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	require.NoError(t, err)

	trend := s.Trend()
	assert.Equal(t, 0, trend[10], "undefined before lookback")
	assert.Equal(t, 1, trend[59])
	assert.Equal(t, -1, trend[len(trend)-1])

	var sawSell bool
	for _, x := range Crossovers(trend) {
		if x.Action == contracts.ActionSell && x.Index >= 60 {
			sawSell = true
		}
	}
	assert.True(t, sawSell)
}

func TestAlphaTrend_BreakoutAndBreakdown(t *testing.T) {
	var bars []contracts.Bar
	for i := 0; i < 20; i++ {
		bars = append(bars, flatBar(i, 100))
	}
	bars = append(bars, flatBar(20, 110))
	for i := 21; i < 24; i++ {
		bars = append(bars, flatBar(i, 110))
	}
	bars = append(bars, flatBar(24, 95))

	s, err := AlphaTrend(bars, AlphaTrendPeriod, AlphaTrendMultiplier)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(s.ATR[12]))
	assert.InDelta(t, 2.0, s.ATR[13], 1e-12)
	assert.InDelta(t, 37.0/14.0, s.ATR[20], 1e-9)

	assert.Equal(t, 0, s.State[15])
	assert.Equal(t, 1, s.State[20], "close cleared the resistance band")
	assert.Equal(t, 0, s.State[22])
	assert.Equal(t, -1, s.State[24], "close broke the ratcheted support")

	x, ok := LastCrossover(s.State)
	require.True(t, ok)
	assert.Equal(t, 24, x.Index)
	assert.Equal(t, contracts.ActionSell, x.Action)

	r := s.Readings(24)
	assert.Equal(t, -1.0, r["state"])
}

func TestAlphaTrend_NotEnoughBars(t *testing.T) {
	bars := []contracts.Bar{flatBar(0, 1), flatBar(1, 2)}
	_, err := AlphaTrend(bars, AlphaTrendPeriod, AlphaTrendMultiplier)
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)

	_, err = AlphaTrend(bars, 0, 2)
	assert.ErrorIs(t, err, contracts.ErrPreconditionViolated)
}

func TestCrossovers(t *testing.T) {
	tests := []struct {
		name  string
		state []int
		want  []Crossover
	}{
		{"empty", nil, nil},
		{"no flip", []int{0, 1, 1, 0, 1}, nil},
		{"buy across gap", []int{-1, 0, 0, 1}, []Crossover{{Index: 3, Action: contracts.ActionBuy}}},
		{"sell then buy", []int{1, -1, -1, 1}, []Crossover{
			{Index: 1, Action: contracts.ActionSell},
			{Index: 3, Action: contracts.ActionBuy},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Crossovers(tt.state))
		})
	}

	_, ok := LastCrossover([]int{1, -1, -1})
	assert.False(t, ok, "flip not on the final bar")
}
