package report

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	charts "github.com/vicanso/go-charts/v2"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/wonny/frontier/internal/contracts"
)

// FrontierPNG plots sampled portfolios in (risk, return) space coloured by
// Sharpe ratio, with the optimal portfolio highlighted when given.
func FrontierPNG(points []contracts.FrontierPoint, optimal *contracts.PortfolioMetrics) ([]byte, error) {
	if len(points) < 2 {
		return nil, errors.New("not enough frontier points")
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	sharpe := make([]float64, len(points))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, p := range points {
		xs[i] = p.Metrics.AnnualRisk * 100
		ys[i] = p.Metrics.AnnualReturn * 100
		sharpe[i] = p.Metrics.Sharpe
		lo, hi = math.Min(lo, sharpe[i]), math.Max(hi, sharpe[i])
	}

	pct := func(v interface{}) string {
		if f, ok := v.(float64); ok {
			return fmt.Sprintf("%.1f%%", f)
		}
		return ""
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name: "Random portfolios",
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    2,
				DotColorProvider: func(_, _ chart.Range, index int, _, _ float64) drawing.Color {
					return chart.Viridis(sharpe[index], lo, hi)
				},
			},
			XValues: xs,
			YValues: ys,
		},
	}
	if optimal != nil {
		series = append(series, chart.ContinuousSeries{
			Name: "Max Sharpe",
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    7,
				DotColor:    drawing.ColorRed,
			},
			XValues: []float64{optimal.AnnualRisk * 100},
			YValues: []float64{optimal.AnnualReturn * 100},
		})
	}

	graph := chart.Chart{
		Title:  "Efficient Frontier",
		Width:  1024,
		Height: 640,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis:  chart.XAxis{Name: "Annual volatility", ValueFormatter: pct},
		YAxis:  chart.YAxis{Name: "Annual return", ValueFormatter: pct},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render frontier: %w", err)
	}
	return buf.Bytes(), nil
}

// CompositionPNG renders the allocation as a pie chart
func CompositionPNG(b *contracts.Bundle) ([]byte, error) {
	rows := sortedAllocation(b)
	if len(rows) == 0 {
		return nil, errors.New("empty allocation")
	}

	values := make([]float64, len(rows))
	names := make([]string, len(rows))
	for i, r := range rows {
		values[i] = r.Weight * 100
		names[i] = fmt.Sprintf("%s %.1f%%", r.Symbol, r.Weight*100)
	}

	p, err := charts.PieRender(values,
		charts.TitleTextOptionFunc("Portfolio Composition", b.Window.To.Format("2006-01-02")),
		charts.LegendOptionFunc(charts.LegendOption{
			Orient: charts.OrientVertical,
			Data:   names,
			Left:   charts.PositionLeft,
		}),
		charts.PieSeriesShowLabel(),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("render composition: %w", err)
	}
	return p.Bytes()
}
