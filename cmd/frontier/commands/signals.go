package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/contracts"
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:   "signals [macd|alphatrend]",
	Short: "Scan trend indicators for crossovers",
	Long: `Evaluates MACD or AlphaTrend over each symbol and reports the
symbols whose last bar is a crossover. Signals are stored when
DATABASE_URL is set.

Example:
  go run ./cmd/frontier signals macd --symbols THYAO,GARAN
  go run ./cmd/frontier signals alphatrend --notify`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"macd", "alphatrend"},
	RunE:      runSignals,
}

var (
	signalSymbols string
	signalNotify  bool
)

func init() {
	rootCmd.AddCommand(signalsCmd)

	signalsCmd.Flags().StringVar(&signalSymbols, "symbols", "", "comma-separated symbols (default SCAN_SYMBOLS, then PORTFOLIO_SYMBOLS)")
	signalsCmd.Flags().BoolVar(&signalNotify, "notify", false, "send found signals to Telegram")
}

func runSignals(cmd *cobra.Command, args []string) error {
	indicator := strings.ToUpper(args[0])
	if indicator != contracts.IndicatorMACD && indicator != contracts.IndicatorAlphaTrend {
		return fmt.Errorf("unknown indicator %q (valid: macd, alphatrend)", args[0])
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, appOptions{notify: signalNotify})
	if err != nil {
		return err
	}
	defer a.close()

	symbols := parseSymbols(signalSymbols)
	if len(symbols) == 0 {
		symbols = watchList(a)
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols: use --symbols or set SCAN_SYMBOLS")
	}

	found, err := a.scanner().Scan(ctx, indicator, symbols, time.Now())
	if err != nil {
		return err
	}

	PrintHeader(indicator+" Scan", "Symbols   : "+FormatCount(len(symbols)))
	if len(found) == 0 {
		PrintInfo("No crossover on the last bar")
		return nil
	}

	widths := []int{10, 6, 12, 12}
	PrintTableHeader([]string{"Symbol", "Action", "Date", "Price"}, widths)
	for _, s := range found {
		PrintTableRow([]string{s.Symbol, string(s.Action), s.Date.Format("2006-01-02"), fmt.Sprintf("%.2f", s.Price)}, widths)
	}
	return nil
}

// watchList is the scan universe: SCAN_SYMBOLS, else the portfolio symbols
func watchList(a *app) []string {
	if len(a.cfg.Schedule.Symbols) > 0 {
		return a.cfg.Schedule.Symbols
	}
	if req, err := a.request(time.Now()); err == nil {
		return req.Symbols
	}
	return a.cfg.Portfolio.Symbols
}
