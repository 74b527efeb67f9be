package services

import (
	"context"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/meridianfi/treasury-sweeper/internal/clients/relayclient"
	"github.com/meridianfi/treasury-sweeper/internal/db"
	"github.com/meridianfi/treasury-sweeper/internal/db/model"
	"github.com/meridianfi/treasury-sweeper/internal/observability/metrics"
	"github.com/meridianfi/treasury-sweeper/internal/types"
	"github.com/meridianfi/treasury-sweeper/pkg"
)

const percentageDenominator = 10_000

// RunSweepCycle evaluates every enabled sweep config once. At most one
// cycle runs at a time; a cycle starting while another is in flight returns
// immediately with Skipped set.
func (s *Service) RunSweepCycle(ctx context.Context) (*types.CycleReport, error) {
	if !s.cycleMu.TryLock() {
		log.Ctx(ctx).Warn().Msg("Previous sweep cycle still in flight, skipping this tick")
		return &types.CycleReport{
			CycleID:   uuid.New().String(),
			StartedAt: time.Now(),
			Skipped:   true,
		}, nil
	}
	defer s.cycleMu.Unlock()

	report := &types.CycleReport{
		CycleID:   uuid.New().String(),
		StartedAt: time.Now(),
	}

	configs, err := s.db.GetActiveSweepConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active sweep configs: %w", err)
	}
	metrics.RecordActiveSweepConfigsCount(len(configs))

	for _, cfg := range configs {
		result := s.processSweepConfig(ctx, cfg)
		report.Results = append(report.Results, result)

		metrics.RecordSweepOutcome(result.State.String())
		s.publishSweepResult(ctx, report.CycleID, &result)
	}

	report.FinishedAt = time.Now()
	metrics.RecordSweepCycleDuration(report.FinishedAt.Sub(report.StartedAt))

	log.Ctx(ctx).Info().
		Str("cycle_id", report.CycleID).
		Int("configs", len(configs)).
		Int("succeeded", report.Succeeded()).
		Int("failed", report.Failed()).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Sweep cycle finished")

	return report, nil
}

// processSweepConfig walks one account through the sweep state machine.
// Every terminal state is reported per account; one account's failure never
// stops the rest of the cycle.
func (s *Service) processSweepConfig(ctx context.Context, cfg *model.SweepConfigDocument) types.SweepResult {
	logger := log.Ctx(ctx).With().Str("account_id", cfg.AccountID).Logger()

	account, err := s.db.GetAccount(ctx, cfg.AccountID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to resolve account for sweep config")
		return configErrorResult(cfg.AccountID, fmt.Errorf("failed to resolve account: %w", err))
	}
	if !account.SweepModuleEnabled {
		return configErrorResult(cfg.AccountID, fmt.Errorf("sweep module not enabled for account %s", cfg.AccountID))
	}

	if err := pkg.ValidateEVMAddress(cfg.VaultDestination); err != nil {
		logger.Error().Err(err).Str("vault", cfg.VaultDestination).Msg("Invalid vault destination, skipping until reconfigured")
		return configErrorResult(cfg.AccountID, fmt.Errorf("invalid vault destination: %w", err))
	}
	if cfg.PercentageBasisPoints <= 0 || cfg.PercentageBasisPoints > percentageDenominator {
		return configErrorResult(cfg.AccountID, fmt.Errorf("percentage out of range: %d", cfg.PercentageBasisPoints))
	}

	if s.cfg.Sweep.DepositSyncEnabled {
		// best effort, sweeping works off the observed balance either way
		if err := s.SyncIncomingTransfers(ctx, account); err != nil {
			logger.Warn().Err(err).Msg("Failed to sync incoming transfers")
		}
	}

	observed, err := s.chain.BalanceOf(ctx, s.cfg.Chain.TokenAddress, account.PrimaryAddress)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read on-chain balance, skipping account this cycle")
		return observationErrorResult(cfg.AccountID, err)
	}

	baseline, created, err := s.db.GetAndSetBaseline(ctx, cfg.AccountID, observed.String())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load allocation baseline")
		return observationErrorResult(cfg.AccountID, err)
	}
	if created {
		// pre-existing funds are never swept; the first observation only
		// seeds the baseline
		logger.Info().Str("balance", observed.String()).Msg("Initialized allocation baseline")
		return types.SweepResult{
			AccountID:   cfg.AccountID,
			State:       types.SweepStateNoBaseline,
			SweptAmount: sdkmath.ZeroInt(),
		}
	}

	lastChecked, ok := sdkmath.NewIntFromString(baseline.LastCheckedBalance)
	if !ok {
		return observationErrorResult(cfg.AccountID, fmt.Errorf("unparseable baseline balance %q", baseline.LastCheckedBalance))
	}
	totalDeposited, ok := sdkmath.NewIntFromString(baseline.TotalDeposited)
	if !ok {
		return observationErrorResult(cfg.AccountID, fmt.Errorf("unparseable deposited total %q", baseline.TotalDeposited))
	}

	delta := observed.Sub(lastChecked)
	if !delta.IsPositive() {
		if err := s.db.UpdateBaselineBalance(ctx, cfg.AccountID, observed.String()); err != nil {
			return observationErrorResult(cfg.AccountID, err)
		}
		return noDeltaResult(cfg.AccountID)
	}

	amountToSave := delta.MulRaw(cfg.PercentageBasisPoints).QuoRaw(percentageDenominator)
	if !amountToSave.IsPositive() {
		if err := s.db.UpdateBaselineBalance(ctx, cfg.AccountID, observed.String()); err != nil {
			return observationErrorResult(cfg.AccountID, err)
		}
		return noDeltaResult(cfg.AccountID)
	}

	logger.Info().
		Str("delta", delta.String()).
		Str("amount", amountToSave.String()).
		Str("vault", cfg.VaultDestination).
		Msg("Sweeping idle balance into vault")

	deposit := &relayclient.VaultDeposit{
		AccountAddress: account.PrimaryAddress,
		VaultAddress:   cfg.VaultDestination,
		TokenAddress:   s.cfg.Chain.TokenAddress,
		Amount:         amountToSave.String(),
	}

	// any failure from here until confirmation leaves the baseline stale,
	// so the same delta is recomputed and retried next cycle
	if _, err := s.relay.Simulate(ctx, deposit); err != nil {
		logger.Error().Err(err).Msg("Deposit simulation failed")
		return recordFailureResult(cfg.AccountID, amountToSave, "", err)
	}

	txID, err := s.relay.Send(ctx, deposit)
	if err != nil {
		logger.Error().Err(err).Msg("Deposit submission failed")
		return recordFailureResult(cfg.AccountID, amountToSave, "", err)
	}

	receipt, err := s.relay.AwaitReceipt(ctx, txID)
	if err != nil {
		logger.Error().Err(err).Str("tx_id", txID).Msg("Deposit confirmation failed")
		return recordFailureResult(cfg.AccountID, amountToSave, "", err)
	}
	if !receipt.Succeeded() {
		err := fmt.Errorf("deposit transaction %s reverted on-chain", receipt.TxHash)
		logger.Error().Err(err).Msg("Deposit reverted")
		return recordFailureResult(cfg.AccountID, amountToSave, receipt.TxHash, err)
	}

	return s.recordConfirmedSweep(ctx, cfg, account, observed, totalDeposited, amountToSave, receipt)
}

// recordConfirmedSweep persists the accounting for a deposit that confirmed
// on-chain. Funds have already moved, so the baseline always advances here
// even if a bookkeeping write fails.
func (s *Service) recordConfirmedSweep(
	ctx context.Context,
	cfg *model.SweepConfigDocument,
	account *model.AccountDocument,
	observed, totalDeposited, amountToSave sdkmath.Int,
	receipt *relayclient.Receipt,
) types.SweepResult {
	logger := log.Ctx(ctx).With().Str("account_id", cfg.AccountID).Str("tx_hash", receipt.TxHash).Logger()

	_, shares, found := s.chain.DecodeDepositEvent(receipt.Logs, cfg.VaultDestination)
	if !found {
		logger.Warn().Msg("Deposit event not found in receipt logs, recording zero shares")
		shares = sdkmath.ZeroInt()
	}

	event := &types.EarningsEvent{
		ID:           receipt.TxHash,
		Type:         types.EventTypeDeposit,
		Timestamp:    time.Now(),
		Amount:       amountToSave,
		VaultAddress: cfg.VaultDestination,
		APY:          cfg.APY(),
		Shares:       shares,
		Decimals:     s.cfg.Chain.TokenDecimals,
	}

	var recordErr error
	if err := s.db.AppendEarningsEvent(ctx, cfg.AccountID, event); err != nil {
		if db.IsDuplicateKeyError(err) {
			logger.Info().Msg("Earnings event already recorded")
		} else {
			logger.Error().Err(err).Msg("Failed to append earnings event")
			recordErr = err
		}
	}

	// the baseline records the balance as observed at the start of the
	// cycle; the deposit itself shows up as a negative delta next cycle
	newTotal := totalDeposited.Add(amountToSave)
	if err := s.db.ApplySweepToBaseline(ctx, cfg.AccountID, observed.String(), newTotal.String()); err != nil {
		logger.Error().Err(err).Msg("Failed to advance baseline after sweep")
		recordErr = err
	}

	if err := s.db.RecordSweepTrigger(ctx, cfg.AccountID, time.Now()); err != nil {
		logger.Warn().Err(err).Msg("Failed to record sweep trigger time")
	}

	s.markDepositsSwept(ctx, cfg.AccountID, receipt.TxHash)

	if s.balanceCache != nil {
		if err := s.balanceCache.Invalidate(ctx, pkg.NormalizeAddress(account.PrimaryAddress)); err != nil {
			logger.Warn().Err(err).Msg("Failed to invalidate cached balance")
		}
	}

	if recordErr != nil {
		return recordFailureResult(cfg.AccountID, amountToSave, receipt.TxHash, recordErr)
	}

	logger.Info().
		Str("amount", amountToSave.String()).
		Str("shares", shares.String()).
		Msg("Sweep recorded")

	return types.SweepResult{
		AccountID:   cfg.AccountID,
		State:       types.SweepStateRecordSuccess,
		SweptAmount: amountToSave,
		TxHash:      receipt.TxHash,
	}
}

func (s *Service) publishSweepResult(ctx context.Context, cycleID string, result *types.SweepResult) {
	if s.queueManager == nil {
		return
	}

	if err := s.queueManager.PublishSweepResult(ctx, cycleID, result); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("account_id", result.AccountID).
			Msg("Failed to publish sweep event")
		metrics.RecordQueueSendError()
	}
}

func configErrorResult(accountID string, err error) types.SweepResult {
	return types.SweepResult{
		AccountID:   accountID,
		State:       types.SweepStateConfigError,
		SweptAmount: sdkmath.ZeroInt(),
		Err:         err,
	}
}

func observationErrorResult(accountID string, err error) types.SweepResult {
	return types.SweepResult{
		AccountID:   accountID,
		State:       types.SweepStateObservationError,
		SweptAmount: sdkmath.ZeroInt(),
		Err:         err,
	}
}

func noDeltaResult(accountID string) types.SweepResult {
	return types.SweepResult{
		AccountID:   accountID,
		State:       types.SweepStateNoDelta,
		SweptAmount: sdkmath.ZeroInt(),
	}
}

func recordFailureResult(accountID string, amount sdkmath.Int, txHash string, err error) types.SweepResult {
	return types.SweepResult{
		AccountID:   accountID,
		State:       types.SweepStateRecordFailure,
		SweptAmount: amount,
		TxHash:      txHash,
		Err:         err,
	}
}
