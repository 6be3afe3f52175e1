package indicators

import (
	"github.com/wonny/frontier/internal/contracts"
)

// Crossover is a trend flip at bar Index
type Crossover struct {
	Index  int
	Action contracts.Action
}

// Crossovers scans a trend state stream (+1/-1/0) and reports every bar
// where it flips between -1 and +1. Zero states are skipped, so a flip
// across an undefined bar still counts.
func Crossovers(state []int) []Crossover {
	var out []Crossover
	prev := 0
	for i, s := range state {
		if s == 0 {
			continue
		}
		if prev != 0 && s != prev {
			action := contracts.ActionBuy
			if s < 0 {
				action = contracts.ActionSell
			}
			out = append(out, Crossover{Index: i, Action: action})
		}
		prev = s
	}
	return out
}

// LastCrossover reports a crossover only if it happened on the final bar
func LastCrossover(state []int) (Crossover, bool) {
	xs := Crossovers(state)
	if len(xs) == 0 || xs[len(xs)-1].Index != len(state)-1 {
		return Crossover{}, false
	}
	return xs[len(xs)-1], true
}

// Closes extracts closing prices from bars
func Closes(bars []contracts.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
