package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/report"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download daily prices",
	Long: `Downloads daily bars for the universe. Bars are stored when
DATABASE_URL is set and can be exported as CSV.

Example:
  go run ./cmd/frontier fetch --symbols THYAO,GARAN --lookback 30
  go run ./cmd/frontier fetch --out output`,
	RunE: runFetch,
}

var (
	fetchFlags runFlags
	fetchOut   string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchFlags.register(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "write prices.csv to this directory")
}

func runFetch(cmd *cobra.Command, args []string) error {
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
	if err := fetchFlags.apply(cmd, &req, time.Now()); err != nil {
		return err
	}
	universe, err := contracts.NewAssetUniverse(req.Symbols)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := a.collector().Collect(ctx, universe, req.Window)
	if err != nil {
		return err
	}

	PrintHeader("Price Fetch",
		fmt.Sprintf("Period    : %s ~ %s", req.Window.From.Format("2006-01-02"), req.Window.To.Format("2006-01-02")),
		"Symbols   : "+FormatCount(universe.Len()),
	)

	widths := []int{10, 8, 12, 12}
	PrintTableHeader([]string{"Symbol", "Bars", "First", "Last"}, widths)
	for _, symbol := range universe.Symbols() {
		bars, ok := res.Prices[symbol]
		if !ok {
			continue
		}
		first, last := bars[0].Date, bars[0].Date
		for _, b := range bars {
			if b.Date.Before(first) {
				first = b.Date
			}
			if b.Date.After(last) {
				last = b.Date
			}
		}
		PrintTableRow([]string{symbol, FormatCount(len(bars)), first.Format("2006-01-02"), last.Format("2006-01-02")}, widths)
	}
	fmt.Println()

	for _, symbol := range res.Failed() {
		PrintError(fmt.Sprintf("%s: %v", symbol, res.Failures[symbol]))
	}
	if a.db != nil {
		PrintInfo(fmt.Sprintf("Stored %s bars", FormatCount(res.Saved)))
	}

	if fetchOut != "" {
		path, err := report.WriteFile(fetchOut, "prices.csv", func(w io.Writer) error {
			return report.WritePricesCSV(w, res.Prices)
		})
		if err != nil {
			return err
		}
		PrintSuccess("Wrote " + path)
	}

	PrintSuccess(fmt.Sprintf("Fetched %d/%d symbols in %.2fs", len(res.Prices), universe.Len(), time.Since(start).Seconds()))
	return nil
}
