package contracts

import "time"

// Bar is one daily OHLCV observation
type Bar struct {
	Date   time.Time `json:"date" msgpack:"d"`
	Open   float64   `json:"open" msgpack:"o"`
	High   float64   `json:"high" msgpack:"h"`
	Low    float64   `json:"low" msgpack:"l"`
	Close  float64   `json:"close" msgpack:"c"`
	Volume int64     `json:"volume" msgpack:"v"`
}

// PriceSeries maps an asset identifier to its bars. Dates need not be
// aligned across assets and may be unsorted.
type PriceSeries map[string][]Bar

// Day truncates t to its calendar day in UTC. Bars are keyed by trading day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive span of calendar days
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Valid reports whether From is not after To
func (r DateRange) Valid() bool {
	return !r.From.IsZero() && !r.To.IsZero() && !r.From.After(r.To)
}

// Lookback returns the range of the last days calendar days ending at end
func Lookback(end time.Time, days int) DateRange {
	end = Day(end)
	return DateRange{From: end.AddDate(0, 0, -days), To: end}
}
