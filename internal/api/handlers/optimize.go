package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/optimizer"
	"github.com/wonny/frontier/internal/pipeline"
	"github.com/wonny/frontier/pkg/logger"
)

// RequestDefaults yields the request an empty body runs with
type RequestDefaults func(now time.Time) (pipeline.Request, error)

// OptimizeHandler runs the pipeline on demand
// ⭐ SSOT: the HTTP surface of the optimizer lives here
type OptimizeHandler struct {
	runner   *pipeline.Runner
	defaults RequestDefaults
	logger   *logger.Logger
}

// NewOptimizeHandler creates a new optimize handler
func NewOptimizeHandler(runner *pipeline.Runner, defaults RequestDefaults, log *logger.Logger) *OptimizeHandler {
	return &OptimizeHandler{runner: runner, defaults: defaults, logger: log}
}

// OptimizeRequest overrides the defaults field by field
type OptimizeRequest struct {
	Symbols          []string  `json:"symbols"`
	From             string    `json:"from"`
	To               string    `json:"to"`
	LookbackDays     int       `json:"lookback_days"`
	Value            float64   `json:"value"`
	Currency         string    `json:"currency"`
	ConfidenceLevels []float64 `json:"confidence_levels"`
	Method           string    `json:"method"`
	Samples          *int      `json:"samples"`
	Seed             *int64    `json:"seed"`
	DropUnavailable  *bool     `json:"drop_unavailable"`
	Persist          bool      `json:"persist"`
	Notify           bool      `json:"notify"`
}

// OptimizeResponse is the bundle plus the sampled cloud when asked for
type OptimizeResponse struct {
	Bundle   *contracts.Bundle         `json:"bundle"`
	Frontier []contracts.FrontierPoint `json:"frontier,omitempty"`
}

// Optimize runs one optimization
// POST /api/optimize?points=true
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var body OptimizeRequest
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := h.defaults(time.Now())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	if err := body.apply(&req, time.Now()); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"assets": len(req.Symbols),
		"from":   req.Window.From.Format("2006-01-02"),
		"to":     req.Window.To.Format("2006-01-02"),
	}).Info("Optimization requested")

	res, err := h.runner.Run(r.Context(), req)
	if err != nil {
		h.logger.WithError(err).Error("Optimization failed")
		respondError(w, statusFor(err), err.Error())
		return
	}

	resp := OptimizeResponse{Bundle: res.Bundle}
	if r.URL.Query().Get("points") == "true" {
		resp.Frontier = res.Frontier
	}
	respondJSON(w, http.StatusOK, resp)
}

func (b OptimizeRequest) apply(req *pipeline.Request, now time.Time) error {
	if len(b.Symbols) > 0 {
		req.Symbols = b.Symbols
	}
	if b.Value != 0 {
		req.PortfolioValue = b.Value
	}
	if b.Currency != "" {
		req.Currency = strings.ToUpper(b.Currency)
	}
	if len(b.ConfidenceLevels) > 0 {
		req.ConfidenceLevels = b.ConfidenceLevels
	}
	if b.Method != "" {
		req.Optimizer.Method = optimizer.Method(strings.ToLower(b.Method))
	}
	if b.Samples != nil {
		req.FrontierSamples = *b.Samples
	}
	if b.Seed != nil {
		req.Seed = *b.Seed
	}
	if b.DropUnavailable != nil {
		req.DropUnavailable = *b.DropUnavailable
	}
	req.Persist = b.Persist
	req.Notify = b.Notify

	if b.From == "" && b.To == "" && b.LookbackDays == 0 {
		return nil
	}

	to := contracts.Day(now)
	if b.To != "" {
		t, err := time.Parse("2006-01-02", b.To)
		if err != nil {
			return contracts.Preconditionf("invalid 'to' date (expected YYYY-MM-DD)")
		}
		to = t
	}
	switch {
	case b.From != "":
		from, err := time.Parse("2006-01-02", b.From)
		if err != nil {
			return contracts.Preconditionf("invalid 'from' date (expected YYYY-MM-DD)")
		}
		req.Window = contracts.DateRange{From: from, To: to}
	case b.LookbackDays > 0:
		req.Window = contracts.Lookback(to, b.LookbackDays)
	default:
		req.Window = contracts.Lookback(to, int(req.Window.To.Sub(req.Window.From).Hours()/24))
	}
	if !req.Window.Valid() {
		return contracts.Preconditionf("'from' is after 'to'")
	}
	return nil
}
