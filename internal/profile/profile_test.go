package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
meta:
  name: test
  version: "1"
universe:
  symbols: [THYAO, GARAN]
window:
  lookback_days: 365
portfolio:
  value: 500000
  currency: TRY
optimizer:
  method: bfgs
risk:
  confidence_levels: [0.95]
  limits: {max_var: 0.2, max_cvar: 0.3}
frontier:
  samples: 200
  seed: 7
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "test", p.Meta.Name)
	assert.Equal(t, []string{"THYAO", "GARAN"}, p.Universe.Symbols)
	assert.True(t, p.Universe.DropsUnavailable(), "drop policy defaults to true")
	assert.Equal(t, 0.2, p.Risk.Limits.MaxVaR)
	assert.Equal(t, int64(7), p.Frontier.Seed)
}

func TestParse_UnknownFieldFails(t *testing.T) {
	_, err := Parse([]byte(validYAML + "\nextra_field: 1\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		patch func(p *Profile)
		field string
	}{
		{"missing name", func(p *Profile) { p.Meta.Name = "" }, "meta.name"},
		{"no symbols", func(p *Profile) { p.Universe.Symbols = nil }, "universe.symbols"},
		{"duplicate symbol", func(p *Profile) { p.Universe.Symbols = []string{"A", "A"} }, "universe.symbols[1]"},
		{"bad date", func(p *Profile) { p.Window.Start = "2024/01/01" }, "window.start"},
		{"reversed window", func(p *Profile) { p.Window.Start, p.Window.End = "2024-02-01", "2024-01-01" }, "window"},
		{"short lookback", func(p *Profile) { p.Window.LookbackDays = 1 }, "window.lookback_days"},
		{"zero value", func(p *Profile) { p.Portfolio.Value = 0 }, "portfolio.value"},
		{"bad currency", func(p *Profile) { p.Portfolio.Currency = "lira" }, "portfolio.currency"},
		{"bad method", func(p *Profile) { p.Optimizer.Method = "sqp" }, "optimizer.method"},
		{"confidence of one", func(p *Profile) { p.Risk.ConfidenceLevels = []float64{1} }, "risk.confidence_levels[0]"},
		{"limit above one", func(p *Profile) { p.Risk.Limits.MaxCVaR = 1.5 }, "risk.limits.max_cvar"},
		{"negative samples", func(p *Profile) { p.Frontier.Samples = -1 }, "frontier.samples"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse([]byte(validYAML))
			require.NoError(t, err)
			tt.patch(p)

			err = Validate(p)
			var ve ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestHash_Deterministic(t *testing.T) {
	p1, err := Parse([]byte(validYAML))
	require.NoError(t, err)
	p2, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	h1, err := Hash(p1)
	require.NoError(t, err)
	h2, _ := Hash(p2)
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)

	p2.Portfolio.Value++
	h3, _ := Hash(p2)
	assert.NotEqual(t, h1, h3)
}

func TestWarnings(t *testing.T) {
	p, err := Parse([]byte(validYAML))
	require.NoError(t, err)
	assert.Empty(t, Warnings(p))

	p.Universe.Symbols = []string{"THYAO"}
	p.Window.LookbackDays = 30
	codes := map[string]bool{}
	for _, w := range Warnings(p) {
		codes[w.Code] = true
	}
	assert.True(t, codes["SINGLE_ASSET"])
	assert.True(t, codes["SHORT_WINDOW"])
}

func TestLoad_BundledProfile(t *testing.T) {
	path := filepath.Join("..", "..", "config", "profiles", "bist_core.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("bundled profile not found")
	}

	p, data, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Len(t, p.Universe.Symbols, 10)
	assert.Len(t, p.Risk.Scenarios, 2)
}
