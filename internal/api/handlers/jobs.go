package handlers

import (
	"net/http"

	"github.com/wonny/frontier/internal/scheduler"
)

// JobsHandler exposes scheduler statistics
type JobsHandler struct {
	scheduler *scheduler.Scheduler
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(s *scheduler.Scheduler) *JobsHandler {
	return &JobsHandler{scheduler: s}
}

// Stats returns per-job run statistics
// GET /api/jobs
func (h *JobsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.scheduler.GetJobStats())
}
