package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/wonny/frontier/internal/contracts"
)

// TelegramHTML renders a compact run summary using Telegram's HTML subset
func TelegramHTML(b *contracts.Bundle) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "📊 <b>Portfolio Optimization</b>\n")
	fmt.Fprintf(&sb, "<i>%s ~ %s · %d days</i>\n\n",
		b.Window.From.Format("2006-01-02"), b.Window.To.Format("2006-01-02"), b.Observations)

	fmt.Fprintf(&sb, "<b>Allocation</b>\n")
	for _, row := range sortedAllocation(b) {
		fmt.Fprintf(&sb, "• %s: %s\n", html.EscapeString(row.Symbol), Percent(row.Weight))
	}

	fmt.Fprintf(&sb, "\n<b>Expected</b>\n")
	fmt.Fprintf(&sb, "Return: %s\nVolatility: %s\nSharpe: %.2f\n",
		Percent(b.Metrics.AnnualReturn), Percent(b.Metrics.AnnualRisk), b.Metrics.Sharpe)

	if len(b.Risk) > 0 {
		fmt.Fprintf(&sb, "\n<b>Risk</b> (%s)\n", html.EscapeString(Money(b.PortfolioValue, b.Currency)))
		for _, r := range b.Risk {
			fmt.Fprintf(&sb, "VaR %s: %s\nCVaR %s: %s\n",
				confidenceLabel(r.Confidence), html.EscapeString(Money(r.VaR, b.Currency)),
				confidenceLabel(r.Confidence), html.EscapeString(Money(r.CVaR, b.Currency)))
		}
	}

	if b.Limits != nil && !b.Limits.Passed {
		sb.WriteString("\n")
		for _, v := range b.Limits.Violations {
			fmt.Fprintf(&sb, "⚠️ %s\n", html.EscapeString(v.Message))
		}
	}
	if len(b.Dropped) > 0 {
		fmt.Fprintf(&sb, "\n<i>Excluded: %s</i>\n", html.EscapeString(strings.Join(sortedKeys(b.Dropped), ", ")))
	}

	return sb.String()
}

// SignalsHTML renders scanned indicator signals as one message
func SignalsHTML(signals []contracts.IndicatorSignal, at time.Time) string {
	if len(signals) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔔 <b>%s Signals</b> 🔔\n\n", html.EscapeString(signals[0].Indicator))
	for _, s := range signals {
		icon, label := "🟢", "BUY"
		if s.Action == contracts.ActionSell {
			icon, label = "🔴", "SELL"
		}
		fmt.Fprintf(&sb, "%s <b>%s:</b> %s · Price: %.2f\n", icon, label, html.EscapeString(s.Symbol), s.Price)
	}
	fmt.Fprintf(&sb, "\n📅 <i>Scan time: %s</i>", at.Format("2006-01-02 15:04"))
	return sb.String()
}
