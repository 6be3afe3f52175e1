package returns

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/frontier/internal/contracts"
)

var day0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func bars(closes ...float64) []contracts.Bar {
	out := make([]contracts.Bar, len(closes))
	for i, c := range closes {
		out[i] = contracts.Bar{Date: day0.AddDate(0, 0, i), Close: c}
	}
	return out
}

func universe(t *testing.T, symbols ...string) *contracts.AssetUniverse {
	t.Helper()
	u, err := contracts.NewAssetUniverse(symbols)
	require.NoError(t, err)
	return u
}

func TestBuild_ThreeAssetScenario(t *testing.T) {
	u := universe(t, "A", "B", "C")
	prices := contracts.PriceSeries{
		"A": bars(100, 101, 102),
		"B": bars(50, 49, 51),
		"C": bars(10, 10.5, 10.3),
	}

	rm, err := Build(u, prices)
	require.NoError(t, err)

	require.Equal(t, 2, rm.Rows(), "first row is undefined and dropped")
	require.Equal(t, 3, rm.Cols())

	last := rm.Row(1)
	assert.InDelta(t, 0.0099, last[0], 1e-4)
	assert.InDelta(t, 0.0408, last[1], 1e-4)
	assert.InDelta(t, -0.0190, last[2], 1e-4)

	first := rm.Row(0)
	assert.InDelta(t, 0.01, first[0], 1e-12)
	assert.InDelta(t, -0.02, first[1], 1e-12)
	assert.InDelta(t, 0.05, first[2], 1e-12)

	assert.Equal(t, []time.Time{day0.AddDate(0, 0, 1), day0.AddDate(0, 0, 2)}, rm.Dates())
}

func TestBuild_AlignsOnIntersection(t *testing.T) {
	u := universe(t, "A", "B", "C")
	prices := contracts.PriceSeries{
		"A": bars(100, 101, 102),
		"B": bars(50, 49, 51)[1:], // missing the first day
		"C": bars(10, 10.5, 10.3),
	}

	rm, err := Build(u, prices)
	require.NoError(t, err)

	require.Equal(t, 1, rm.Rows())
	row := rm.Row(0)
	assert.InDelta(t, 0.0099, row[0], 1e-4)
	assert.InDelta(t, 0.0408, row[1], 1e-4)
	assert.InDelta(t, -0.0190, row[2], 1e-4)
}

func TestBuild_OrderIsDeterministic(t *testing.T) {
	u := universe(t, "C", "A")
	shuffled := bars(10, 11, 12, 13)
	shuffled[0], shuffled[3] = shuffled[3], shuffled[0]

	prices := contracts.PriceSeries{
		"A": bars(1, 2, 4, 8),
		"C": shuffled,
	}

	rm, err := Build(u, prices)
	require.NoError(t, err)

	require.Equal(t, 3, rm.Rows())
	assert.InDelta(t, 0.1, rm.At(0, 0), 1e-12, "column 0 follows universe order (C)")
	assert.InDelta(t, 1.0, rm.At(0, 1), 1e-12)
	dates := rm.Dates()
	assert.True(t, dates[0].Before(dates[1]) && dates[1].Before(dates[2]))
}

func TestBuild_DataUnavailable(t *testing.T) {
	tests := []struct {
		name      string
		prices    contracts.PriceSeries
		wantAsset string
	}{
		{
			name:      "missing asset",
			prices:    contracts.PriceSeries{"A": bars(1, 2, 3)},
			wantAsset: "B",
		},
		{
			name:      "single observation",
			prices:    contracts.PriceSeries{"A": bars(1, 2, 3), "B": bars(5)},
			wantAsset: "B",
		},
		{
			name:      "only invalid closes",
			prices:    contracts.PriceSeries{"A": bars(0, math.NaN()), "B": bars(5, 6)},
			wantAsset: "A",
		},
		{
			name: "disjoint dates",
			prices: contracts.PriceSeries{
				"A": bars(1, 2),
				"B": bars(1, 2, 3, 4)[2:],
			},
			wantAsset: contracts.AllAssets,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(universe(t, "A", "B"), tt.prices)
			require.Error(t, err)
			assert.True(t, errors.Is(err, contracts.ErrDataUnavailable))

			asset, ok := contracts.UnavailableAsset(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantAsset, asset)
		})
	}
}

func TestBuild_DuplicateDayKeepsLast(t *testing.T) {
	u := universe(t, "A")
	b := bars(100, 110)
	b = append(b, contracts.Bar{Date: day0.AddDate(0, 0, 1).Add(17 * time.Hour), Close: 120})

	rm, err := Build(u, contracts.PriceSeries{"A": b})
	require.NoError(t, err)
	assert.InDelta(t, 0.2, rm.At(0, 0), 1e-12)
}

func TestBuildDropping(t *testing.T) {
	u := universe(t, "A", "B", "C")
	prices := contracts.PriceSeries{
		"A": bars(100, 101, 102),
		"C": bars(10, 10.5, 10.3),
	}

	rm, dropped, err := BuildDropping(u, prices)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"B": "no price observations"}, dropped)
	assert.Equal(t, []string{"A", "C"}, rm.Universe().Symbols())
	assert.Equal(t, 2, rm.Rows())

	_, dropped, err = BuildDropping(u, contracts.PriceSeries{})
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)
	assert.Len(t, dropped, 3)
}
