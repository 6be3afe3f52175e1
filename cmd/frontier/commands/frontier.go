package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/report"
)

// frontierCmd represents the frontier command
var frontierCmd = &cobra.Command{
	Use:   "frontier",
	Short: "Sample the efficient frontier",
	Long: `Samples random long-only portfolios over the universe and reports
the best-Sharpe and lowest-risk samples next to the optimizer result.

Example:
  go run ./cmd/frontier frontier --symbols THYAO,GARAN,ASELS --samples 5000 --seed 7 --out output`,
	RunE: runFrontier,
}

var (
	frontierFlags runFlags
	frontierOut   string
)

func init() {
	rootCmd.AddCommand(frontierCmd)

	frontierFlags.register(frontierCmd)
	frontierCmd.Flags().StringVar(&frontierOut, "out", "", "write frontier.csv and frontier.png to this directory")
}

func runFrontier(cmd *cobra.Command, args []string) error {
	if frontierFlags.samples < 0 {
		return fmt.Errorf("--samples must be ≥ 0 for the frontier command")
	}

	a, res, err := runOnce(cmd.Context(), cmd, &frontierFlags)
	if err != nil {
		return err
	}
	defer a.close()

	b := res.Bundle
	PrintHeader("Efficient Frontier",
		"Universe  : "+strings.Join(b.Universe, ", "),
		"Samples   : "+FormatCount(b.Frontier.Samples),
	)

	widths := []int{12, 10, 10, 8}
	PrintTableHeader([]string{"Portfolio", "Return", "Risk", "Sharpe"}, widths)
	row := func(name string, m contracts.PortfolioMetrics) {
		PrintTableRow([]string{name, report.Percent(m.AnnualReturn), report.Percent(m.AnnualRisk), fmt.Sprintf("%.3f", m.Sharpe)}, widths)
	}
	row("Optimal", b.Metrics)
	row("Max Sharpe", b.Frontier.MaxSharpe.Metrics)
	row("Min Risk", b.Frontier.MinRisk.Metrics)
	fmt.Println()

	fmt.Println("Min-risk sample weights:")
	for _, aw := range b.Frontier.MinRisk.Weights.Labeled(res.Returns.Universe()) {
		PrintKeyValue(aw.Symbol, report.Percent(aw.Weight), 8)
	}

	if frontierOut == "" {
		return nil
	}

	csvPath, err := report.WriteFile(frontierOut, b.RunID[:8]+"_frontier.csv", func(w io.Writer) error {
		return report.WriteFrontierCSV(w, b.Universe, res.Frontier)
	})
	if err != nil {
		return err
	}
	png, err := report.FrontierPNG(res.Frontier, &b.Metrics)
	if err != nil {
		return err
	}
	pngPath, err := report.WriteFile(frontierOut, b.RunID[:8]+"_frontier.png", func(w io.Writer) error {
		_, err := w.Write(png)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Println()
	PrintSuccess("Wrote " + csvPath)
	PrintSuccess("Wrote " + pngPath)
	return nil
}
