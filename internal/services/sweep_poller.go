package services

import (
	"context"

	"github.com/meridianfi/treasury-sweeper/internal/observability/metrics"
	"github.com/meridianfi/treasury-sweeper/internal/utils/poller"
)

// StartSweepPoller starts the periodic sweep cycle.
func (s *Service) StartSweepPoller(ctx context.Context) {
	sweepPoller := poller.NewPoller(
		s.cfg.Sweep.SweepPollingInterval,
		metrics.RecordPollerDuration("sweep", s.runSweepCyclePoll),
	)
	go sweepPoller.Start(ctx)
}

func (s *Service) runSweepCyclePoll(ctx context.Context) error {
	_, err := s.RunSweepCycle(ctx)
	return err
}
