package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/api"
	"github.com/wonny/frontier/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health              - Health check
  POST /api/optimize        - Run an optimization (?points=true adds the frontier cloud)
  GET  /api/runs            - Latest stored runs
  GET  /api/runs/{id}       - One stored run
  GET  /api/signals         - Latest stored signals
  POST /api/signals/scan    - Scan MACD / AlphaTrend now
  GET  /api/jobs            - Scheduler statistics (with --scheduler)

Example:
  go run ./cmd/frontier api
  go run ./cmd/frontier api --port 8080 --scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	apiScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
	apiCmd.Flags().BoolVar(&apiScheduler, "scheduler", false, "also run the background jobs")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Frontier API Server ===")

	a, err := newApp(cmd.Context(), appOptions{notify: true})
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	var lister handlers.SignalLister
	h := api.Handlers{
		Optimize: handlers.NewOptimizeHandler(a.runner(), a.request, a.log),
	}
	if a.db != nil {
		h.Runs = handlers.NewRunsHandler(a.runs, a.log)
		lister = a.signals
	} else {
		PrintWarning("DATABASE_URL not set: /api/runs is disabled")
	}
	h.Signals = handlers.NewSignalsHandler(a.scanner(), lister, watchList(a), a.log)

	if apiScheduler {
		sched, err := initScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		h.Jobs = handlers.NewJobsHandler(sched)
	}

	server := api.New(a.cfg, a.log, api.NewRouter(h, a.log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s", a.cfg.Port))
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
