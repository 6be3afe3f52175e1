// Package frontier samples random long-only portfolios to approximate the
// efficient frontier cloud.
package frontier

import (
	"iter"
	"math"
	"math/rand"
	"time"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/metrics"
)

// DefaultSampleSize is used when the caller asks for zero samples
const DefaultSampleSize = 1000

// NewRand returns a seeded source; seed 0 seeds from the clock
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Sampler draws FrontierPoints from one ReturnMatrix with an injected
// random source. A Sampler is not safe for concurrent use because the
// source is not.
type Sampler struct {
	calc *metrics.Calculator
	n    int
	rng  *rand.Rand
}

// NewSampler binds rm and rng
func NewSampler(rm *contracts.ReturnMatrix, rng *rand.Rand) (*Sampler, error) {
	if rm == nil {
		return nil, contracts.Preconditionf("nil return matrix")
	}
	if rng == nil {
		return nil, contracts.Preconditionf("nil random source")
	}
	return &Sampler{calc: metrics.NewCalculator(rm), n: rm.Cols(), rng: rng}, nil
}

// Sample returns a finite sequence of sampleSize points (DefaultSampleSize
// when ≤ 0). Each point's weights are N uniform draws normalized to sum 1.
// The sequence can be ranged over once; later ranges yield nothing.
func (s *Sampler) Sample(assetCount, sampleSize int) (iter.Seq[contracts.FrontierPoint], error) {
	if assetCount != s.n {
		return nil, contracts.Preconditionf("asset count %d does not match %d return columns", assetCount, s.n)
	}
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	consumed := false
	return func(yield func(contracts.FrontierPoint) bool) {
		if consumed {
			return
		}
		consumed = true

		for k := 0; k < sampleSize; k++ {
			w := s.randomWeights()
			p := contracts.FrontierPoint{Metrics: s.calc.Evaluate(w)}
			var err error
			if p.Weights, err = contracts.NewWeightVector(w); err != nil {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}, nil
}

// Sample is the one-shot form of NewSampler(...).Sample(...)
func Sample(rm *contracts.ReturnMatrix, assetCount, sampleSize int, rng *rand.Rand) (iter.Seq[contracts.FrontierPoint], error) {
	s, err := NewSampler(rm, rng)
	if err != nil {
		return nil, err
	}
	return s.Sample(assetCount, sampleSize)
}

func (s *Sampler) randomWeights() []float64 {
	w := make([]float64, s.n)
	for {
		sum := 0.0
		for i := range w {
			w[i] = s.rng.Float64()
			sum += w[i]
		}
		if sum > 0 {
			for i := range w {
				w[i] /= sum
			}
			return w
		}
	}
}

// Collect drains seq into a slice
func Collect(seq iter.Seq[contracts.FrontierPoint]) []contracts.FrontierPoint {
	var out []contracts.FrontierPoint
	for p := range seq {
		out = append(out, p)
	}
	return out
}

// Summarize returns the max-Sharpe and min-risk points of points
func Summarize(points []contracts.FrontierPoint) contracts.FrontierSummary {
	summary := contracts.FrontierSummary{Samples: len(points)}
	if len(points) == 0 {
		return summary
	}

	bestSharpe, lowestRisk := math.Inf(-1), math.Inf(1)
	for _, p := range points {
		if p.Metrics.Sharpe > bestSharpe {
			bestSharpe = p.Metrics.Sharpe
			summary.MaxSharpe = p
		}
		if p.Metrics.AnnualRisk < lowestRisk {
			lowestRisk = p.Metrics.AnnualRisk
			summary.MinRisk = p
		}
	}
	return summary
}
