// Package backtest evaluates the optimizer out of sample: weights are fitted
// on a training window and held, untouched, over the rows that follow.
package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/optimizer"
	"github.com/wonny/frontier/pkg/logger"
)

// Engine runs holdout backtests
// ⭐ SSOT: out-of-sample evaluation happens only here
type Engine struct {
	logger *logger.Logger
}

// Config holds backtest configuration. Day counts are return rows.
type Config struct {
	TrainDays      int // leading rows used for fitting, the rest are held out
	InitialCapital float64
	Optimizer      optimizer.Config
}

// DefaultConfig fits one year of returns
func DefaultConfig() Config {
	return Config{
		TrainDays:      252,
		InitialCapital: 1_000_000,
		Optimizer:      optimizer.DefaultConfig(),
	}
}

// EquityPoint is the marked-to-market value after one return row
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
	Return float64   `json:"return"` // cumulative since start
}

// Performance summarizes one buy-and-hold equity curve
type Performance struct {
	FinalCapital     float64 `json:"final_capital"`
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Volatility       float64 `json:"volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
}

// Result holds the fitted weights and how they fared afterwards
type Result struct {
	Config      Config    `json:"config"`
	TrainStart  time.Time `json:"train_start"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TradingDays int       `json:"trading_days"`

	Weights     contracts.WeightVector     `json:"weights"`
	InSample    contracts.PortfolioMetrics `json:"in_sample"`
	EquityCurve []EquityPoint              `json:"equity_curve"`

	Optimized Performance `json:"optimized"`
	Benchmark Performance `json:"benchmark"` // equal weights, same holding rule
}

// NewEngine creates a new backtest engine
func NewEngine(log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{logger: log.WithComponent("backtest")}
}

// Run fits on the first TrainDays rows of rm and holds the weights over the rest.
// Positions drift with prices; nothing is traded after the initial purchase.
func (e *Engine) Run(ctx context.Context, rm *contracts.ReturnMatrix, cfg Config) (*Result, error) {
	if rm == nil {
		return nil, contracts.Preconditionf("nil return matrix")
	}
	if cfg.TrainDays < 2 {
		return nil, contracts.Preconditionf("train days must be ≥ 2, got %d", cfg.TrainDays)
	}
	if cfg.InitialCapital <= 0 {
		return nil, contracts.Preconditionf("initial capital must be positive, got %g", cfg.InitialCapital)
	}
	T, n := rm.Rows(), rm.Cols()
	if T <= cfg.TrainDays {
		return nil, contracts.NewDataUnavailable(contracts.AllAssets,
			fmt.Sprintf("%d return rows, need more than %d for a holdout test", T, cfg.TrainDays), nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dates := rm.Dates()
	e.logger.WithFields(map[string]interface{}{
		"train_start": dates[0].Format("2006-01-02"),
		"start":       dates[cfg.TrainDays].Format("2006-01-02"),
		"end":         dates[T-1].Format("2006-01-02"),
		"train":       cfg.TrainDays,
		"assets":      n,
	}).Info("Starting backtest")

	window, err := slice(rm, dates, 0, cfg.TrainDays)
	if err != nil {
		return nil, err
	}
	fit, err := optimizer.New(cfg.Optimizer, e.logger).Optimize(window)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	result := &Result{
		Config:      cfg,
		TrainStart:  dates[0],
		StartDate:   dates[cfg.TrainDays],
		EndDate:     dates[T-1],
		TradingDays: T - cfg.TrainDays,
		Weights:     fit.Weights,
		InSample:    fit.Metrics,
	}

	var daily []float64
	result.EquityCurve, daily = hold(rm, dates, cfg.TrainDays, fit.Weights.Values(), cfg.InitialCapital)
	result.Optimized = summarize(cfg.InitialCapital, result.EquityCurve, daily)

	benchCurve, benchDaily := hold(rm, dates, cfg.TrainDays, contracts.EqualWeights(n).Values(), cfg.InitialCapital)
	result.Benchmark = summarize(cfg.InitialCapital, benchCurve, benchDaily)

	e.logger.WithFields(map[string]interface{}{
		"trading_days":     result.TradingDays,
		"total_return":     fmt.Sprintf("%.2f%%", result.Optimized.TotalReturn*100),
		"benchmark_return": fmt.Sprintf("%.2f%%", result.Benchmark.TotalReturn*100),
		"sharpe_ratio":     fmt.Sprintf("%.2f", result.Optimized.SharpeRatio),
		"max_drawdown":     fmt.Sprintf("%.2f%%", result.Optimized.MaxDrawdown*100),
	}).Info("Backtest completed")

	return result, nil
}

// hold buys weights at row from and lets them drift until the last row
func hold(rm *contracts.ReturnMatrix, dates []time.Time, from int, weights []float64, capital float64) ([]EquityPoint, []float64) {
	held := append([]float64(nil), weights...)
	equity := capital
	curve := make([]EquityPoint, 0, rm.Rows()-from)
	daily := make([]float64, 0, rm.Rows()-from)

	for k := from; k < rm.Rows(); k++ {
		row := rm.Row(k)
		r := floats.Dot(held, row)
		for i := range held {
			held[i] *= 1 + row[i]
		}
		if total := floats.Sum(held); total > 0 {
			floats.Scale(1/total, held)
		}

		equity *= 1 + r
		daily = append(daily, r)
		curve = append(curve, EquityPoint{
			Date:   dates[k],
			Equity: equity,
			Return: equity/capital - 1,
		})
	}
	return curve, daily
}

// slice copies rows [from, to) of rm into a new matrix
func slice(rm *contracts.ReturnMatrix, dates []time.Time, from, to int) (*contracts.ReturnMatrix, error) {
	rows := make([][]float64, 0, to-from)
	for t := from; t < to; t++ {
		rows = append(rows, rm.Row(t))
	}
	return contracts.NewReturnMatrix(rm.Universe(), dates[from:to], rows)
}

// summarize derives the performance figures from an equity curve
func summarize(capital float64, curve []EquityPoint, daily []float64) Performance {
	var p Performance
	if len(curve) == 0 {
		return p
	}

	p.FinalCapital = curve[len(curve)-1].Equity
	p.TotalReturn = p.FinalCapital/capital - 1

	years := float64(len(daily)) / contracts.TradingDays
	if p.FinalCapital > 0 {
		p.AnnualizedReturn = math.Pow(p.FinalCapital/capital, 1/years) - 1
	} else {
		p.AnnualizedReturn = -1
	}

	annualizer := math.Sqrt(contracts.TradingDays)
	if len(daily) > 1 {
		p.Volatility = stat.PopStdDev(daily, nil) * annualizer
	}
	if p.Volatility > 0 {
		p.SharpeRatio = p.AnnualizedReturn / p.Volatility
	}

	var downside []float64
	for _, r := range daily {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) > 1 {
		if dd := stat.PopStdDev(downside, nil) * annualizer; dd > 0 {
			p.SortinoRatio = p.AnnualizedReturn / dd
		}
	}

	p.MaxDrawdown = maxDrawdown(capital, curve)
	return p
}

// maxDrawdown is the largest peak-to-trough fall of the curve, starting from capital
func maxDrawdown(capital float64, curve []EquityPoint) float64 {
	peak, worst := capital, 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if dd := (peak - p.Equity) / peak; dd > worst {
			worst = dd
		}
	}
	return worst
}
