package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/wonny/frontier/internal/report"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// every command prints through these so the output stays uniform
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a boxed command header
func PrintHeader(title string, lines ...string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	if len(lines) > 0 {
		PrintSeparator()
		for _, l := range lines {
			fmt.Printf("  %s\n", l)
		}
	}
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// FormatCount renders an integer with thousands separators
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatMoney renders an amount in the run currency
func FormatMoney(amount float64, currency string) string {
	return report.Money(amount, currency)
}

// parseSymbols splits a comma list into upper-case symbols
func parseSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseWeights parses "A=0.6,B=0.4" preserving order
func parseWeights(s string) ([]string, []float64, error) {
	var (
		symbols []string
		weights []float64
	)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sym, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, nil, fmt.Errorf("weight %q: expected SYMBOL=WEIGHT", part)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("weight %q: %w", part, err)
		}
		symbols = append(symbols, strings.ToUpper(strings.TrimSpace(sym)))
		weights = append(weights, w)
	}
	if len(symbols) == 0 {
		return nil, nil, fmt.Errorf("no weights given")
	}
	return symbols, weights, nil
}
