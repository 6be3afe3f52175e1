package contracts

import "time"

// Action is the direction of an indicator signal
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Indicator names
const (
	IndicatorMACD       = "MACD"
	IndicatorAlphaTrend = "ALPHATREND"
)

// IndicatorSignal is a crossover event emitted by a trend indicator
type IndicatorSignal struct {
	Symbol    string             `json:"symbol"`
	Indicator string             `json:"indicator"`
	Date      time.Time          `json:"date"`
	Action    Action             `json:"action"`
	Price     float64            `json:"price"`
	Values    map[string]float64 `json:"values,omitempty"` // indicator readings at the signal bar
}
