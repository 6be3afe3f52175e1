package notify

import (
	"context"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/pkg/config"
	"github.com/wonny/frontier/pkg/logger"
)

// LogNotifier writes notifications to the structured log
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{logger: log.WithComponent("notify")}
}

func (n *LogNotifier) NotifyRun(_ context.Context, b *contracts.Bundle) error {
	n.logger.WithFields(map[string]interface{}{
		"run_id":        b.RunID,
		"assets":        len(b.Universe),
		"annual_return": b.Metrics.AnnualReturn,
		"annual_risk":   b.Metrics.AnnualRisk,
		"sharpe":        b.Metrics.Sharpe,
	}).Info("Optimization run finished")
	return nil
}

func (n *LogNotifier) NotifySignals(_ context.Context, signals []contracts.IndicatorSignal) error {
	for _, s := range signals {
		n.logger.WithFields(map[string]interface{}{
			"symbol":    s.Symbol,
			"indicator": s.Indicator,
			"action":    string(s.Action),
			"price":     s.Price,
		}).Info("Indicator signal")
	}
	return nil
}

// New returns a Telegram notifier when enabled in cfg, otherwise a LogNotifier
func New(cfg *config.Config, log *logger.Logger) (contracts.Notifier, error) {
	if !cfg.Telegram.Enabled {
		return NewLogNotifier(log), nil
	}
	return NewTelegram(cfg.Telegram, log)
}
