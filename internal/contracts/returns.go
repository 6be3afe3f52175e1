package contracts

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// ReturnMatrix holds T×N simple period returns, rows chronological and
// columns in universe order. Every entry is finite and T ≥ 1.
// Immutable: accessors hand out copies or read-only views.
type ReturnMatrix struct {
	data     *mat.Dense
	dates    []time.Time
	universe *AssetUniverse
}

// NewReturnMatrix validates rows against the universe and copies them.
// dates[t] is the date of the later price of row t.
func NewReturnMatrix(universe *AssetUniverse, dates []time.Time, rows [][]float64) (*ReturnMatrix, error) {
	if universe == nil {
		return nil, Preconditionf("nil asset universe")
	}
	if len(rows) == 0 {
		return nil, NewDataUnavailable(AllAssets, "no aligned return rows", nil)
	}
	if len(dates) != len(rows) {
		return nil, Preconditionf("%d dates for %d rows", len(dates), len(rows))
	}

	n := universe.Len()
	data := mat.NewDense(len(rows), n, nil)
	for t, row := range rows {
		if len(row) != n {
			return nil, Preconditionf("row %d has %d columns, universe has %d", t, len(row), n)
		}
		for i, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, Preconditionf("non-finite return at row %d column %s", t, universe.Symbol(i))
			}
		}
		data.SetRow(t, row)
	}

	ds := make([]time.Time, len(dates))
	copy(ds, dates)

	return &ReturnMatrix{data: data, dates: ds, universe: universe}, nil
}

// Rows returns T
func (m *ReturnMatrix) Rows() int {
	r, _ := m.data.Dims()
	return r
}

// Cols returns N
func (m *ReturnMatrix) Cols() int {
	_, c := m.data.Dims()
	return c
}

// At returns r[t,i]
func (m *ReturnMatrix) At(t, i int) float64 {
	return m.data.At(t, i)
}

// Row returns a copy of row t
func (m *ReturnMatrix) Row(t int) []float64 {
	return mat.Row(nil, t, m.data)
}

// Column returns a copy of column i
func (m *ReturnMatrix) Column(i int) []float64 {
	return mat.Col(nil, i, m.data)
}

// Dates returns a copy of the row dates
func (m *ReturnMatrix) Dates() []time.Time {
	out := make([]time.Time, len(m.dates))
	copy(out, m.dates)
	return out
}

// Universe returns the column universe
func (m *ReturnMatrix) Universe() *AssetUniverse {
	return m.universe
}

// Matrix exposes the data as a read-only gonum matrix
func (m *ReturnMatrix) Matrix() mat.Matrix {
	return readOnly{m.data}
}

// readOnly hides the *mat.Dense setters from callers
type readOnly struct {
	d *mat.Dense
}

func (r readOnly) Dims() (int, int)    { return r.d.Dims() }
func (r readOnly) At(i, j int) float64 { return r.d.At(i, j) }
func (r readOnly) T() mat.Matrix       { return mat.Transpose{Matrix: r} }
