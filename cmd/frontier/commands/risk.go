package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/metrics"
	"github.com/wonny/frontier/internal/report"
	"github.com/wonny/frontier/internal/returns"
	"github.com/wonny/frontier/internal/risk"
)

// riskCmd represents the risk command
var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "VaR/CVaR of a given allocation",
	Long: `Evaluates fixed weights instead of optimizing: annualized metrics,
historical VaR/CVaR at each confidence level, stress scenarios and the
configured risk limits.

Example:
  go run ./cmd/frontier risk --weights THYAO=0.4,GARAN=0.35,ASELS=0.25 --value 500000`,
	RunE: runRisk,
}

var (
	riskWeights string
	riskFlags   runFlags
	riskMaxVaR  float64
	riskMaxCVaR float64
)

func init() {
	rootCmd.AddCommand(riskCmd)

	riskFlags.register(riskCmd)
	riskCmd.Flags().StringVar(&riskWeights, "weights", "", "SYMBOL=WEIGHT pairs summing to 1")
	riskCmd.Flags().Float64Var(&riskMaxVaR, "max-var", 0, "VaR limit as a fraction of value (0 keeps the default)")
	riskCmd.Flags().Float64Var(&riskMaxCVaR, "max-cvar", 0, "CVaR limit as a fraction of value (0 keeps the default)")
	riskCmd.MarkFlagRequired("weights")
}

func runRisk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	symbols, values, err := parseWeights(riskWeights)
	if err != nil {
		return err
	}
	weights, err := contracts.NewWeightVector(values)
	if err != nil {
		return err
	}
	universe, err := contracts.NewAssetUniverse(symbols)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	req, err := a.request(time.Now())
	if err != nil {
		return err
	}
	if err := riskFlags.apply(cmd, &req, time.Now()); err != nil {
		return err
	}

	collected, err := a.collector().Collect(ctx, universe, req.Window)
	if err != nil {
		return err
	}
	if failed := collected.Failed(); len(failed) > 0 {
		return collected.Failures[failed[0]]
	}

	rm, err := returns.Build(universe, collected.Prices)
	if err != nil {
		return err
	}
	pm, err := metrics.Compute(rm, weights)
	if err != nil {
		return err
	}

	engine := risk.NewEngine()
	tail, err := engine.EstimateAll(rm, weights, req.ConfidenceLevels, req.PortfolioValue)
	if err != nil {
		return err
	}
	stress, err := engine.StressTest(universe, weights, req.Scenarios, req.PortfolioValue)
	if err != nil {
		return err
	}

	limits := risk.DefaultLimits()
	if req.Limits != nil {
		limits = *req.Limits
	}
	if riskMaxVaR > 0 {
		limits.MaxVaR = riskMaxVaR
	}
	if riskMaxCVaR > 0 {
		limits.MaxCVaR = riskMaxCVaR
	}
	check := engine.CheckLimits(tail, limits)

	PrintHeader("Allocation Risk",
		fmt.Sprintf("Window    : %s ~ %s (%s returns)", req.Window.From.Format("2006-01-02"), req.Window.To.Format("2006-01-02"), FormatCount(rm.Rows())),
		"Value     : "+FormatMoney(req.PortfolioValue, req.Currency),
	)
	PrintKeyValue("Annual return", report.Percent(pm.AnnualReturn), 14)
	PrintKeyValue("Annual risk", report.Percent(pm.AnnualRisk), 14)
	PrintKeyValue("Sharpe", fmt.Sprintf("%.3f", pm.Sharpe), 14)
	fmt.Println()

	widths := []int{10, 18, 18}
	PrintTableHeader([]string{"Level", "VaR", "CVaR"}, widths)
	for _, m := range tail {
		PrintTableRow([]string{
			fmt.Sprintf("%.1f%%", m.Confidence*100),
			FormatMoney(m.VaR, req.Currency),
			FormatMoney(m.CVaR, req.Currency),
		}, widths)
	}
	fmt.Println()

	for _, s := range stress {
		PrintKeyValue(s.Scenario, fmt.Sprintf("%s (%s)", FormatMoney(s.PnL, req.Currency), report.Percent(s.Return)), 24)
	}
	fmt.Println()

	if check.Passed {
		PrintSuccess("All risk limits passed")
	}
	for _, v := range check.Violations {
		PrintError(v.Message)
	}
	return nil
}
