package contracts

import (
	"encoding/json"
	"math"
)

// WeightTolerance bounds |Σw − 1| for a valid WeightVector
const WeightTolerance = 1e-6

// WeightVector is a long-only fully invested allocation.
// Entries lie in [0,1] and sum to 1 within WeightTolerance.
// The zero value means "no weights computed yet".
type WeightVector struct {
	w []float64
}

// NewWeightVector validates and copies values
func NewWeightVector(values []float64) (WeightVector, error) {
	if len(values) == 0 {
		return WeightVector{}, Preconditionf("empty weight vector")
	}

	sum := 0.0
	for i, v := range values {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return WeightVector{}, Preconditionf("weight %d = %g outside [0,1]", i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > WeightTolerance {
		return WeightVector{}, Preconditionf("weights sum to %g, want 1", sum)
	}

	w := make([]float64, len(values))
	copy(w, values)
	return WeightVector{w: w}, nil
}

// EqualWeights returns the uniform 1/n allocation
func EqualWeights(n int) WeightVector {
	if n <= 0 {
		return WeightVector{}
	}
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return WeightVector{w: w}
}

// Len returns N, or 0 for the zero value
func (v WeightVector) Len() int {
	return len(v.w)
}

// IsZero reports whether no weights were set
func (v WeightVector) IsZero() bool {
	return len(v.w) == 0
}

// At returns w_i
func (v WeightVector) At(i int) float64 {
	return v.w[i]
}

// Values returns a copy of the weights
func (v WeightVector) Values() []float64 {
	out := make([]float64, len(v.w))
	copy(out, v.w)
	return out
}

// Sum returns Σw
func (v WeightVector) Sum() float64 {
	s := 0.0
	for _, x := range v.w {
		s += x
	}
	return s
}

// AssetWeight pairs an identifier with its allocation
type AssetWeight struct {
	Symbol string  `json:"symbol"`
	Weight float64 `json:"weight"`
}

// Labeled pairs the weights with universe symbols in column order
func (v WeightVector) Labeled(u *AssetUniverse) []AssetWeight {
	out := make([]AssetWeight, len(v.w))
	for i, x := range v.w {
		out[i] = AssetWeight{Symbol: u.Symbol(i), Weight: x}
	}
	return out
}

// MarshalJSON encodes the weights as a plain array
func (v WeightVector) MarshalJSON() ([]byte, error) {
	if v.w == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v.w)
}

// UnmarshalJSON decodes and validates a plain array
func (v *WeightVector) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*v = WeightVector{}
		return nil
	}
	w, err := NewWeightVector(raw)
	if err != nil {
		return err
	}
	*v = w
	return nil
}
