package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/frontier/internal/api/handlers"
	"github.com/wonny/frontier/pkg/logger"
)

// Handlers groups the endpoint handlers. Nil handlers leave their routes unregistered.
type Handlers struct {
	Optimize *handlers.OptimizeHandler
	Runs     *handlers.RunsHandler
	Signals  *handlers.SignalsHandler
	Jobs     *handlers.JobsHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routes are registered only here
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	if h.Optimize != nil {
		api.HandleFunc("/optimize", h.Optimize.Optimize).Methods("POST")
	}
	if h.Runs != nil {
		api.HandleFunc("/runs", h.Runs.List).Methods("GET")
		api.HandleFunc("/runs/{id}", h.Runs.Get).Methods("GET")
	}
	if h.Signals != nil {
		api.HandleFunc("/signals", h.Signals.List).Methods("GET")
		api.HandleFunc("/signals/scan", h.Signals.Scan).Methods("POST")
	}
	if h.Jobs != nil {
		api.HandleFunc("/jobs", h.Jobs.Stats).Methods("GET")
	}

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "frontier-api",
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start).String(),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
