// Package indicators computes trend indicators over daily bars and
// extracts BUY/SELL crossovers from them.
package indicators

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/wonny/frontier/internal/contracts"
)

// MACD default periods
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// MACDSeries holds the MACD line, its signal line and the histogram.
// Entries before the indicator's lookback are NaN.
type MACDSeries struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes MACD(fast, slow, signal) over closes
func MACD(closes []float64, fast, slow, signal int) (MACDSeries, error) {
	if fast <= 0 || slow <= fast || signal <= 0 {
		return MACDSeries{}, contracts.Preconditionf("invalid MACD periods %d/%d/%d", fast, slow, signal)
	}
	lookback := slow + signal - 2
	if len(closes) <= lookback {
		return MACDSeries{}, fmt.Errorf("%w: MACD needs more than %d closes, got %d",
			contracts.ErrDataUnavailable, lookback, len(closes))
	}

	macd, sig, hist := talib.Macd(closes, fast, slow, signal)
	for i := 0; i < lookback; i++ {
		macd[i], sig[i], hist[i] = math.NaN(), math.NaN(), math.NaN()
	}
	return MACDSeries{MACD: macd, Signal: sig, Histogram: hist}, nil
}

// Trend returns +1 where MACD is above its signal line, -1 where below and
// 0 where undefined or equal
func (s MACDSeries) Trend() []int {
	out := make([]int, len(s.MACD))
	for i := range s.MACD {
		switch {
		case math.IsNaN(s.MACD[i]) || math.IsNaN(s.Signal[i]):
		case s.MACD[i] > s.Signal[i]:
			out[i] = 1
		case s.MACD[i] < s.Signal[i]:
			out[i] = -1
		}
	}
	return out
}

// Readings returns the indicator values at bar i
func (s MACDSeries) Readings(i int) map[string]float64 {
	return map[string]float64{
		"macd":      s.MACD[i],
		"signal":    s.Signal[i],
		"histogram": s.Histogram[i],
	}
}
