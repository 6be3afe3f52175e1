package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/frontier/internal/signals"
	"github.com/wonny/frontier/pkg/logger"
)

// ScanJob evaluates one trend indicator over the watch list
type ScanJob struct {
	scanner   *signals.Scanner
	indicator string
	symbols   []string
	schedule  string
	logger    *logger.Logger
}

// NewScanJob creates an indicator scan job (MACD daily, AlphaTrend intraday)
func NewScanJob(scanner *signals.Scanner, indicator string, symbols []string, schedule string, log *logger.Logger) *ScanJob {
	if log == nil {
		log = logger.Nop()
	}
	return &ScanJob{
		scanner:   scanner,
		indicator: indicator,
		symbols:   symbols,
		schedule:  schedule,
		logger:    log,
	}
}

func (j *ScanJob) Name() string     { return strings.ToLower(j.indicator) + "_scan" }
func (j *ScanJob) Schedule() string { return j.schedule }

// Run scans the watch list and reports the crossovers found on the last bar
func (j *ScanJob) Run(ctx context.Context) error {
	found, err := j.scanner.Scan(ctx, j.indicator, j.symbols, time.Now())
	if err != nil {
		return fmt.Errorf("%s scan: %w", j.indicator, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"indicator": j.indicator,
		"symbols":   len(j.symbols),
		"signals":   len(found),
	}).Info("Scheduled scan completed")
	return nil
}
