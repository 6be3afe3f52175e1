package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/backtest"
	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/report"
	"github.com/wonny/frontier/internal/returns"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Holdout test of the optimizer",
	Long: `Fits the maximum-Sharpe weights on the first --train return rows
and holds them, without trading, over the remaining rows. The same
holding rule is applied to equal weights as a benchmark.

Example:
  go run ./cmd/frontier backtest --symbols THYAO,GARAN,ASELS --lookback 730 --train 252`,
	RunE: runBacktest,
}

var (
	btFlags runFlags
	btTrain int
	btJSON  bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	def := backtest.DefaultConfig()
	btFlags.register(backtestCmd)
	backtestCmd.Flags().IntVar(&btTrain, "train", def.TrainDays, "leading return rows used for fitting")
	backtestCmd.Flags().BoolVar(&btJSON, "json", false, "print the full result as JSON")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	req, err := a.request(time.Now())
	if err != nil {
		return err
	}
	if err := btFlags.apply(cmd, &req, time.Now()); err != nil {
		return err
	}
	universe, err := contracts.NewAssetUniverse(req.Symbols)
	if err != nil {
		return err
	}

	collected, err := a.collector().Collect(ctx, universe, req.Window)
	if err != nil {
		return err
	}
	if failed := collected.Failed(); len(failed) > 0 && !req.DropUnavailable {
		return collected.Failures[failed[0]]
	}
	rm, dropped, err := returns.BuildDropping(universe, collected.Prices)
	if err != nil {
		return err
	}

	cfg := backtest.Config{
		TrainDays:      btTrain,
		InitialCapital: req.PortfolioValue,
		Optimizer:      req.Optimizer,
	}
	res, err := backtest.NewEngine(a.log).Run(ctx, rm, cfg)
	if err != nil {
		return err
	}

	if btJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	PrintHeader("Holdout Backtest",
		"Universe  : "+strings.Join(rm.Universe().Symbols(), ", "),
		fmt.Sprintf("Fitted on : %s ~ %s (%d rows)", res.TrainStart.Format("2006-01-02"), rm.Dates()[cfg.TrainDays-1].Format("2006-01-02"), cfg.TrainDays),
		fmt.Sprintf("Held      : %s ~ %s (%s days)", res.StartDate.Format("2006-01-02"), res.EndDate.Format("2006-01-02"), FormatCount(res.TradingDays)),
	)
	for symbol, reason := range dropped {
		PrintWarning(fmt.Sprintf("%s excluded: %s", symbol, reason))
	}

	fmt.Println()
	PrintTableHeader([]string{"Asset", "Weight"}, []int{12, 10})
	for _, row := range res.Weights.Labeled(rm.Universe()) {
		PrintTableRow([]string{row.Symbol, report.Percent(row.Weight)}, []int{12, 10})
	}

	fmt.Println()
	widths := []int{18, 18, 18}
	PrintTableHeader([]string{"", "Optimized", "Equal weight"}, widths)
	o, b := res.Optimized, res.Benchmark
	PrintTableRow([]string{"Final capital", FormatMoney(o.FinalCapital, req.Currency), FormatMoney(b.FinalCapital, req.Currency)}, widths)
	PrintTableRow([]string{"Total return", report.Percent(o.TotalReturn), report.Percent(b.TotalReturn)}, widths)
	PrintTableRow([]string{"Annualized return", report.Percent(o.AnnualizedReturn), report.Percent(b.AnnualizedReturn)}, widths)
	PrintTableRow([]string{"Volatility", report.Percent(o.Volatility), report.Percent(b.Volatility)}, widths)
	PrintTableRow([]string{"Sharpe", fmt.Sprintf("%.3f", o.SharpeRatio), fmt.Sprintf("%.3f", b.SharpeRatio)}, widths)
	PrintTableRow([]string{"Sortino", fmt.Sprintf("%.3f", o.SortinoRatio), fmt.Sprintf("%.3f", b.SortinoRatio)}, widths)
	PrintTableRow([]string{"Max drawdown", report.Percent(o.MaxDrawdown), report.Percent(b.MaxDrawdown)}, widths)
	return nil
}
