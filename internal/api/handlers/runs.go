package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/pkg/logger"
)

// RunsHandler serves persisted optimization runs
type RunsHandler struct {
	runs   contracts.RunRepository
	logger *logger.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(runs contracts.RunRepository, log *logger.Logger) *RunsHandler {
	return &RunsHandler{runs: runs, logger: log}
}

// List returns the latest runs
// GET /api/runs?limit=20
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// Get returns one run bundle
// GET /api/runs/{id}
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run id")
		return
	}

	bundle, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).WithField("run_id", id).Error("Failed to load run")
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, bundle)
}
