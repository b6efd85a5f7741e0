package repricer

import (
	"context"
	"time"

	"marketRepricer/pkg/logger"
	"marketRepricer/pkg/metrics"
)

// Scheduler triggers a reprice batch on a fixed interval until its context
// is cancelled.
type Scheduler struct {
	runner   func(ctx context.Context) error
	interval time.Duration
}

func NewScheduler(svc *repricerService, vendorID string, interval time.Duration) *Scheduler {
	return &Scheduler{
		runner: func(ctx context.Context) error {
			_, err := svc.RunBatch(ctx, vendorID)
			return err
		},
		interval: interval,
	}
}

// Run blocks until ctx is done. One batch is kicked off immediately, then
// one per tick; a run overshooting the interval delays the next tick
// rather than overlapping it.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		logger.Info("Reprice scheduler disabled")
		return
	}

	logger.Info("Reprice scheduler started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Reprice scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	metrics.BatchRunsTotal.WithLabelValues("cron").Inc()
	if err := s.runner(ctx); err != nil {
		logger.Error("Scheduled reprice batch failed", "error", err)
	}
}
