package services

import (
	"context"
	"fmt"
	"time"

	"github.com/meridianfi/treasury-sweeper/internal/earnings"
)

// GetAccountEarnings recomputes the account's accrued yield from its full
// event ledger. There is no persisted running total; the ledger is the only
// source of truth.
func (s *Service) GetAccountEarnings(ctx context.Context, accountID string, now time.Time) (earnings.EarningsSummary, error) {
	events, err := s.db.GetEarningsEvents(ctx, accountID)
	if err != nil {
		return earnings.EarningsSummary{}, fmt.Errorf("failed to load earnings ledger: %w", err)
	}

	return earnings.CalculateTotalEarnings(events, now), nil
}

// GetEarningsStream returns the bootstrap values for a live incrementing
// earnings display: accrued value now, per-second rate, open principal.
func (s *Service) GetEarningsStream(ctx context.Context, accountID string, now time.Time) (earnings.StreamBootstrap, error) {
	events, err := s.db.GetEarningsEvents(ctx, accountID)
	if err != nil {
		return earnings.StreamBootstrap{}, fmt.Errorf("failed to load earnings ledger: %w", err)
	}

	return earnings.InitializeEarningsStream(events, now), nil
}
