package indicators

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/wonny/frontier/internal/contracts"
)

// AlphaTrend defaults
const (
	AlphaTrendPeriod     = 14
	AlphaTrendMultiplier = 2.0
)

// AlphaTrendSeries holds the ATR bands and the resulting trend state
type AlphaTrendSeries struct {
	Up    []float64 // trailing support: low - m*ATR, ratcheted up
	Down  []float64 // trailing resistance: high + m*ATR, ratcheted down
	ATR   []float64
	State []int // +1 close above Down, -1 close below Up, 0 otherwise
}

// AlphaTrend computes the ATR band trend over bars (oldest first).
// ATR is the simple mean of the true range over period bars.
func AlphaTrend(bars []contracts.Bar, period int, multiplier float64) (AlphaTrendSeries, error) {
	if period <= 0 || multiplier <= 0 {
		return AlphaTrendSeries{}, contracts.Preconditionf("invalid AlphaTrend parameters %d/%g", period, multiplier)
	}
	n := len(bars)
	if n < period+1 {
		return AlphaTrendSeries{}, fmt.Errorf("%w: AlphaTrend needs at least %d bars, got %d",
			contracts.ErrDataUnavailable, period+1, n)
	}

	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	for i, b := range bars {
		high[i], low[i], closes[i] = b.High, b.Low, b.Close
	}

	tr := talib.TRange(high, low, closes)
	tr[0] = high[0] - low[0]
	atr := talib.Sma(tr, period)
	for i := 0; i < period-1; i++ {
		atr[i] = math.NaN()
	}

	rawUp := make([]float64, n)
	rawDown := make([]float64, n)
	for i := range bars {
		rawUp[i] = low[i] - multiplier*atr[i]
		rawDown[i] = high[i] + multiplier*atr[i]
	}

	up := append([]float64(nil), rawUp...)
	down := append([]float64(nil), rawDown...)
	for i := period; i < n; i++ {
		// bands only ratchet while price stays on the same side
		if closes[i-1] > rawUp[i-1] && closes[i] > rawUp[i] {
			up[i] = math.Max(rawUp[i], rawUp[i-1])
		}
		if closes[i-1] < rawDown[i-1] && closes[i] < rawDown[i] {
			down[i] = math.Min(rawDown[i], rawDown[i-1])
		}
	}

	state := make([]int, n)
	for i := range bars {
		if math.IsNaN(atr[i]) {
			continue
		}
		if closes[i] > down[i] {
			state[i] = 1
		}
		if closes[i] < up[i] {
			state[i] = -1
		}
	}

	return AlphaTrendSeries{Up: up, Down: down, ATR: atr, State: state}, nil
}

// Readings returns the indicator values at bar i
func (s AlphaTrendSeries) Readings(i int) map[string]float64 {
	return map[string]float64{
		"up":    s.Up[i],
		"down":  s.Down[i],
		"atr":   s.ATR[i],
		"state": float64(s.State[i]),
	}
}
