// Package report renders finished runs as text, Telegram HTML, CSV files
// and PNG charts.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/dustin/go-humanize"

	"github.com/wonny/frontier/internal/contracts"
)

// Money formats amount in currency, e.g. ₺1.000.000,00
func Money(amount float64, currency string) string {
	if currency == "" {
		currency = "TRY"
	}
	return money.NewFromFloat(amount, currency).Display()
}

// Percent formats a fraction as a percentage with two decimals
func Percent(f float64) string {
	return fmt.Sprintf("%.2f%%", f*100)
}

// Text renders the plain-text run report
func Text(b *contracts.Bundle) string {
	var sb strings.Builder

	line := strings.Repeat("═", 59)
	sep := strings.Repeat("─", 59)

	fmt.Fprintln(&sb, line)
	fmt.Fprintln(&sb, "  Portfolio Optimization Report")
	fmt.Fprintln(&sb, sep)
	fmt.Fprintf(&sb, "  Run ID       : %s\n", b.RunID)
	if b.ProfileName != "" {
		fmt.Fprintf(&sb, "  Profile      : %s\n", b.ProfileName)
	}
	fmt.Fprintf(&sb, "  Window       : %s ~ %s\n", b.Window.From.Format("2006-01-02"), b.Window.To.Format("2006-01-02"))
	fmt.Fprintf(&sb, "  Observations : %s daily returns\n", humanize.Comma(int64(b.Observations)))
	fmt.Fprintf(&sb, "  Value        : %s\n", Money(b.PortfolioValue, b.Currency))
	fmt.Fprintf(&sb, "  Solver       : %s (%s, %d iterations)\n", b.Solver.Method, b.Solver.Status, b.Solver.Iterations)
	fmt.Fprintln(&sb, sep)

	fmt.Fprintln(&sb, "  Allocation")
	for _, row := range sortedAllocation(b) {
		fmt.Fprintf(&sb, "    %-10s %8s  %s\n", row.Symbol, Percent(row.Weight), Money(row.Weight*b.PortfolioValue, b.Currency))
	}
	if len(b.Dropped) > 0 {
		fmt.Fprintln(&sb, "  Excluded")
		for _, s := range sortedKeys(b.Dropped) {
			fmt.Fprintf(&sb, "    %-10s %s\n", s, b.Dropped[s])
		}
	}
	fmt.Fprintln(&sb, sep)

	fmt.Fprintln(&sb, "  Expected performance (annualized)")
	fmt.Fprintf(&sb, "    Return     : %s\n", Percent(b.Metrics.AnnualReturn))
	fmt.Fprintf(&sb, "    Volatility : %s\n", Percent(b.Metrics.AnnualRisk))
	fmt.Fprintf(&sb, "    Sharpe     : %.4f\n", b.Metrics.Sharpe)
	fmt.Fprintln(&sb, sep)

	if len(b.Risk) > 0 {
		fmt.Fprintln(&sb, "  Risk (historical simulation, annualized)")
		for _, r := range b.Risk {
			varFrac, cvarFrac := r.LossFractions()
			fmt.Fprintf(&sb, "    VaR  %s : %s (%s)\n", confidenceLabel(r.Confidence), Money(r.VaR, b.Currency), Percent(-varFrac))
			fmt.Fprintf(&sb, "    CVaR %s : %s (%s)\n", confidenceLabel(r.Confidence), Money(r.CVaR, b.Currency), Percent(-cvarFrac))
		}
		fmt.Fprintln(&sb, sep)
	}

	if len(b.Stress) > 0 {
		fmt.Fprintln(&sb, "  Stress scenarios")
		for _, s := range b.Stress {
			fmt.Fprintf(&sb, "    %-16s %8s  %s\n", s.Scenario, Percent(s.Return), Money(s.PnL, b.Currency))
		}
		fmt.Fprintln(&sb, sep)
	}

	if f := b.Frontier; f != nil && f.Samples > 0 {
		fmt.Fprintf(&sb, "  Frontier sample (%s portfolios)\n", humanize.Comma(int64(f.Samples)))
		fmt.Fprintf(&sb, "    Best Sharpe : %.4f (return %s, risk %s)\n",
			f.MaxSharpe.Metrics.Sharpe, Percent(f.MaxSharpe.Metrics.AnnualReturn), Percent(f.MaxSharpe.Metrics.AnnualRisk))
		fmt.Fprintf(&sb, "    Min risk    : %s (return %s)\n",
			Percent(f.MinRisk.Metrics.AnnualRisk), Percent(f.MinRisk.Metrics.AnnualReturn))
		fmt.Fprintln(&sb, sep)
	}

	if b.Limits != nil {
		if b.Limits.Passed {
			fmt.Fprintln(&sb, "  ✅ Risk limits passed")
		} else {
			for _, v := range b.Limits.Violations {
				fmt.Fprintf(&sb, "  ⚠️  %s\n", v.Message)
			}
		}
	}
	for _, w := range b.Warnings {
		fmt.Fprintf(&sb, "  ⚠️  %s\n", w)
	}
	fmt.Fprintln(&sb, line)

	return sb.String()
}

func sortedAllocation(b *contracts.Bundle) []contracts.AssetWeight {
	rows := b.AllocationRows()
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Weight > rows[j].Weight })
	return rows
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func confidenceLabel(c float64) string {
	pct := c * 100
	if pct == math.Trunc(pct) {
		return fmt.Sprintf("%.0f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}
