package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/scheduler"
	"github.com/wonny/frontier/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the background jobs",
	Long: `Starts or inspects the job scheduler.

Subcommands:
  start   - run every job on its cron schedule
  list    - show registered jobs and their schedules
  run     - run one job now and exit

Example:
  go run ./cmd/frontier scheduler start
  go run ./cmd/frontier scheduler run portfolio_optimization`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Registers and schedules the jobs (SCHEDULE_* env vars, seconds first):

- portfolio_optimization: optimize, persist and notify (weekdays 18:30)
- price_sync: refresh stored prices (weekdays 19:00)
- macd_scan: MACD crossovers (daily 20:00)
- alphatrend_scan: AlphaTrend crossovers (hourly 10-18 on weekdays)

Stop with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// initScheduler registers every job on a scheduler
func initScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log, scheduler.WithRetry(2, time.Minute))

	symbols := watchList(a)
	list := []scheduler.Job{
		jobs.NewOptimizeJob(a.runner(), a.request, a.cfg.Schedule.Optimize, a.log),
		jobs.NewPriceSyncJob(a.collector(), symbols, 7, a.cfg.Schedule.PriceSync, a.log),
		jobs.NewScanJob(a.scanner(), contracts.IndicatorMACD, symbols, a.cfg.Schedule.MACD, a.log),
		jobs.NewScanJob(a.scanner(), contracts.IndicatorAlphaTrend, symbols, a.cfg.Schedule.AlphaTrend, a.log),
	}
	for _, job := range list {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Frontier Scheduler ===")

	a, err := newApp(cmd.Context(), appOptions{requireDB: true, notify: true})
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start()

	fmt.Println()
	PrintSuccess("Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nStopping scheduler...")
	sched.Stop()
	PrintSuccess("Scheduler stopped")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return err
	}

	widths := []int{24, 20}
	PrintTableHeader([]string{"Job", "Schedule"}, widths)
	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		PrintTableRow([]string{name, stats[name].Schedule}, widths)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appOptions{notify: true})
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return err
	}

	res, err := sched.RunNow(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !res.Success {
		PrintError(fmt.Sprintf("%s failed after %d attempts: %s", res.JobName, res.Attempts, res.Error))
		return fmt.Errorf("job %s failed", res.JobName)
	}
	PrintSuccess(fmt.Sprintf("%s completed in %.2fs", res.JobName, res.Duration.Seconds()))
	return nil
}
