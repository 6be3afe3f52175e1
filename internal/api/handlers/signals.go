package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/signals"
	"github.com/wonny/frontier/pkg/logger"
)

// SignalLister reads stored indicator signals
type SignalLister interface {
	ListSignals(ctx context.Context, limit int) ([]contracts.IndicatorSignal, error)
}

// SignalsHandler runs and lists indicator scans
type SignalsHandler struct {
	scanner *signals.Scanner
	lister  SignalLister // optional
	symbols []string
	logger  *logger.Logger
}

// NewSignalsHandler creates a new signals handler. symbols is the default watch list.
func NewSignalsHandler(scanner *signals.Scanner, lister SignalLister, symbols []string, log *logger.Logger) *SignalsHandler {
	return &SignalsHandler{scanner: scanner, lister: lister, symbols: symbols, logger: log}
}

// ScanRequest selects the indicator and optionally the symbols
type ScanRequest struct {
	Indicator string   `json:"indicator"`
	Symbols   []string `json:"symbols"`
}

// Scan evaluates an indicator now
// POST /api/signals/scan
func (h *SignalsHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	indicator := strings.ToUpper(req.Indicator)
	switch indicator {
	case "":
		indicator = contracts.IndicatorMACD
	case contracts.IndicatorMACD, contracts.IndicatorAlphaTrend:
	default:
		respondError(w, http.StatusBadRequest, "Invalid indicator (valid: MACD, ALPHATREND)")
		return
	}
	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = h.symbols
	}
	if len(symbols) == 0 {
		respondError(w, http.StatusBadRequest, "No symbols to scan")
		return
	}

	found, err := h.scanner.Scan(r.Context(), indicator, symbols, time.Now())
	if err != nil {
		h.logger.WithError(err).Error("Signal scan failed")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"indicator": indicator,
		"scanned":   len(symbols),
		"signals":   found,
	})
}

// List returns the latest stored signals
// GET /api/signals?limit=50
func (h *SignalsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		respondError(w, http.StatusServiceUnavailable, "Signal storage is not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	found, err := h.lister.ListSignals(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list signals")
		respondError(w, http.StatusInternalServerError, "Failed to list signals")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"signals": found,
		"count":   len(found),
	})
}
