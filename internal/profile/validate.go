package profile

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// ValidationError is a hard failure; the profile cannot be used
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning flags a usable but questionable setting
type Warning struct {
	Code    string
	Message string
}

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Validate checks all required constraints
func Validate(p *Profile) error {
	// === Meta ===
	if strings.TrimSpace(p.Meta.Name) == "" {
		return ValidationError{"meta.name", "required"}
	}

	// === Universe ===
	if len(p.Universe.Symbols) == 0 {
		return ValidationError{"universe.symbols", "at least one symbol required"}
	}
	seen := make(map[string]bool, len(p.Universe.Symbols))
	for i, s := range p.Universe.Symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			return ValidationError{fmt.Sprintf("universe.symbols[%d]", i), "blank symbol"}
		}
		if seen[s] {
			return ValidationError{fmt.Sprintf("universe.symbols[%d]", i), "duplicate symbol " + s}
		}
		seen[s] = true
	}

	// === Window ===
	start, err := parseDate(p.Window.Start)
	if err != nil {
		return ValidationError{"window.start", err.Error()}
	}
	end, err := parseDate(p.Window.End)
	if err != nil {
		return ValidationError{"window.end", err.Error()}
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return ValidationError{"window", "start must be before end"}
	}
	if start.IsZero() && p.Window.LookbackDays < 2 {
		return ValidationError{"window.lookback_days", "must be >= 2 when start is not set"}
	}

	// === Portfolio ===
	if p.Portfolio.Value <= 0 || math.IsInf(p.Portfolio.Value, 0) || math.IsNaN(p.Portfolio.Value) {
		return ValidationError{"portfolio.value", "must be a positive amount"}
	}
	if !currencyPattern.MatchString(p.Portfolio.Currency) {
		return ValidationError{"portfolio.currency", "must be an ISO 4217 code"}
	}

	// === Optimizer ===
	switch strings.ToLower(p.Optimizer.Method) {
	case "", "bfgs", "neldermead":
	default:
		return ValidationError{"optimizer.method", "must be bfgs or neldermead"}
	}
	if p.Optimizer.MaxIterations < 0 {
		return ValidationError{"optimizer.max_iterations", "must be >= 0"}
	}

	// === Risk ===
	for i, c := range p.Risk.ConfidenceLevels {
		if !(c > 0 && c < 1) {
			return ValidationError{fmt.Sprintf("risk.confidence_levels[%d]", i), "must be in (0, 1)"}
		}
	}
	if err := validateLimit("risk.limits.max_var", p.Risk.Limits.MaxVaR); err != nil {
		return err
	}
	if err := validateLimit("risk.limits.max_cvar", p.Risk.Limits.MaxCVaR); err != nil {
		return err
	}
	for i, sc := range p.Risk.Scenarios {
		field := fmt.Sprintf("risk.scenarios[%d]", i)
		if strings.TrimSpace(sc.Name) == "" {
			return ValidationError{field + ".name", "required"}
		}
		if len(sc.Shocks) == 0 {
			return ValidationError{field + ".shocks", "at least one shock required"}
		}
		for asset, shock := range sc.Shocks {
			if shock < -1 {
				return ValidationError{field + ".shocks." + asset, "a simple return cannot be below -100%"}
			}
		}
	}

	// === Frontier ===
	if p.Frontier.Samples < 0 {
		return ValidationError{"frontier.samples", "must be >= 0"}
	}

	return nil
}

// Warnings returns recommendations the profile violates
func Warnings(p *Profile) []Warning {
	var out []Warning

	if len(p.Universe.Symbols) == 1 {
		out = append(out, Warning{"SINGLE_ASSET", "a single-asset universe always yields weight 1.0"})
	}
	if p.Window.Start == "" && p.Window.LookbackDays < 90 {
		out = append(out, Warning{"SHORT_WINDOW", fmt.Sprintf("lookback of %d days gives a noisy covariance estimate", p.Window.LookbackDays)})
	}
	if p.Frontier.Samples > 100_000 {
		out = append(out, Warning{"LARGE_SAMPLE", "frontier samples above 100k are slow and add little"})
	}
	if p.Risk.Limits.MaxVaR > 0 && p.Risk.Limits.MaxCVaR > 0 && p.Risk.Limits.MaxCVaR < p.Risk.Limits.MaxVaR {
		out = append(out, Warning{"LIMIT_ORDER", "max_cvar below max_var; CVaR is never smaller than VaR"})
	}

	return out
}

func validateLimit(field string, v float64) error {
	if v < 0 || v > 1 {
		return ValidationError{field, "must be a fraction in [0, 1] (0 disables)"}
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
