package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/optimizer"
	"github.com/wonny/frontier/internal/pipeline"
	"github.com/wonny/frontier/internal/report"
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Find the maximum-Sharpe portfolio",
	Long: `Fetches daily closes, finds the long-only maximum-Sharpe weights,
estimates historical VaR/CVaR, runs the stress scenarios and samples
the efficient frontier.

Symbols and parameters come from --profile, then PORTFOLIO_* env vars;
flags override both.

Example:
  go run ./cmd/frontier optimize --symbols THYAO,GARAN,ASELS --value 250000
  go run ./cmd/frontier optimize --profile config/profiles/bist_core.yaml --out output --persist`,
	RunE: runOptimize,
}

// runFlags are the request overrides shared by optimize and frontier
type runFlags struct {
	symbols  string
	from     string
	to       string
	lookback int
	value    float64
	currency string
	samples  int
	seed     int64
	method   string
	strict   bool
}

var (
	optFlags   runFlags
	optOut     string
	optJSON    bool
	optPersist bool
	optNotify  bool
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optFlags.register(optimizeCmd)
	optimizeCmd.Flags().StringVar(&optOut, "out", "", "write CSV/PNG/JSON outputs to this directory")
	optimizeCmd.Flags().BoolVar(&optJSON, "json", false, "print the bundle as JSON instead of the text report")
	optimizeCmd.Flags().BoolVar(&optPersist, "persist", false, "store the run in the database")
	optimizeCmd.Flags().BoolVar(&optNotify, "notify", false, "send the report to Telegram")
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.symbols, "symbols", "", "comma-separated symbols")
	cmd.Flags().StringVar(&f.from, "from", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "end date YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&f.lookback, "lookback", 0, "calendar days of history (ignored with --from)")
	cmd.Flags().Float64Var(&f.value, "value", 0, "portfolio value")
	cmd.Flags().StringVar(&f.currency, "currency", "", "ISO currency code")
	cmd.Flags().IntVar(&f.samples, "samples", 0, "frontier samples (-1 skips the frontier)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "frontier random seed (0 = time based)")
	cmd.Flags().StringVar(&f.method, "method", "", "optimizer: bfgs | neldermead")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail instead of dropping assets without data")
}

// apply overlays the flags that were set on req
func (f *runFlags) apply(cmd *cobra.Command, req *pipeline.Request, now time.Time) error {
	flags := cmd.Flags()
	if f.symbols != "" {
		req.Symbols = parseSymbols(f.symbols)
	}
	if flags.Changed("value") {
		req.PortfolioValue = f.value
	}
	if f.currency != "" {
		req.Currency = strings.ToUpper(f.currency)
	}
	if flags.Changed("samples") {
		req.FrontierSamples = f.samples
	}
	if flags.Changed("seed") {
		req.Seed = f.seed
	}
	if f.method != "" {
		req.Optimizer.Method = optimizer.Method(strings.ToLower(f.method))
	}
	if f.strict {
		req.DropUnavailable = false
	}

	if f.from == "" && f.to == "" && f.lookback == 0 {
		return nil
	}
	to := contracts.Day(now)
	if f.to != "" {
		t, err := time.Parse("2006-01-02", f.to)
		if err != nil {
			return fmt.Errorf("--to: %w", err)
		}
		to = t
	}
	switch {
	case f.from != "":
		from, err := time.Parse("2006-01-02", f.from)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		req.Window = contracts.DateRange{From: from, To: to}
	case f.lookback > 0:
		req.Window = contracts.Lookback(to, f.lookback)
	default:
		days := int(req.Window.To.Sub(req.Window.From).Hours() / 24)
		req.Window = contracts.Lookback(to, days)
	}
	return nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, appOptions{requireDB: optPersist, notify: optNotify})
	if err != nil {
		return err
	}
	defer a.close()

	req, err := a.request(time.Now())
	if err != nil {
		return err
	}
	if err := optFlags.apply(cmd, &req, time.Now()); err != nil {
		return err
	}
	req.Persist = optPersist
	req.Notify = optNotify

	res, err := a.runner().Run(ctx, req)
	if err != nil {
		return err
	}

	if optJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Bundle); err != nil {
			return err
		}
	} else {
		fmt.Print(report.Text(res.Bundle))
	}

	if optOut != "" {
		paths, err := writeOutputs(optOut, res)
		if err != nil {
			return err
		}
		fmt.Println()
		for _, p := range paths {
			PrintSuccess("Wrote " + p)
		}
	}
	return nil
}

// writeOutputs exports the run as CSV, PNG and JSON files
func writeOutputs(dir string, res *pipeline.Result) ([]string, error) {
	b := res.Bundle
	prefix := b.CreatedAt.Format("20060102_150405") + "_"

	type output struct {
		name  string
		write func(io.Writer) error
	}
	outputs := []output{
		{"weights.csv", func(w io.Writer) error { return report.WriteWeightsCSV(w, b) }},
		{"prices.csv", func(w io.Writer) error { return report.WritePricesCSV(w, res.Prices) }},
		{"bundle.json", func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(b)
		}},
		{"composition.png", func(w io.Writer) error {
			png, err := report.CompositionPNG(b)
			if err != nil {
				return err
			}
			_, err = w.Write(png)
			return err
		}},
	}
	if len(res.Frontier) > 0 {
		outputs = append(outputs,
			output{"frontier.csv", func(w io.Writer) error { return report.WriteFrontierCSV(w, b.Universe, res.Frontier) }},
		)
	}
	if len(res.Frontier) >= 2 {
		outputs = append(outputs, output{"frontier.png", func(w io.Writer) error {
			png, err := report.FrontierPNG(res.Frontier, &b.Metrics)
			if err != nil {
				return err
			}
			_, err = w.Write(png)
			return err
		}})
	}

	paths := make([]string, 0, len(outputs))
	for _, o := range outputs {
		p, err := report.WriteFile(dir, prefix+o.name, o.write)
		if err != nil {
			return paths, fmt.Errorf("write %s: %w", o.name, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// runOnce is the optimize pipeline without output handling
func runOnce(ctx context.Context, cmd *cobra.Command, flags *runFlags) (*app, *pipeline.Result, error) {
	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return nil, nil, err
	}
	req, err := a.request(time.Now())
	if err != nil {
		a.close()
		return nil, nil, err
	}
	if err := flags.apply(cmd, &req, time.Now()); err != nil {
		a.close()
		return nil, nil, err
	}
	res, err := a.runner().Run(ctx, req)
	if err != nil {
		a.close()
		return nil, nil, err
	}
	return a, res, nil
}
