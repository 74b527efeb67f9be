package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meridianfi/treasury-sweeper/internal/db"
	"github.com/meridianfi/treasury-sweeper/internal/db/model"
	"github.com/meridianfi/treasury-sweeper/pkg"
)

// SyncIncomingTransfers records inbound token transfers for the account.
// Transfers originating from the account's own vaults are withdrawals coming
// back, not fresh deposits, and are filtered out.
func (s *Service) SyncIncomingTransfers(ctx context.Context, account *model.AccountDocument) error {
	logger := log.Ctx(ctx).With().Str("account_id", account.AccountID).Logger()

	sinceBlock := uint64(0)
	latest, err := s.db.GetLatestIncomingDeposit(ctx, account.AccountID)
	if err != nil && !db.IsNotFoundError(err) {
		return fmt.Errorf("failed to load latest recorded deposit: %w", err)
	}
	if latest != nil {
		sinceBlock = latest.BlockNumber
	}

	transfers, err := s.relay.ListIncomingTransfers(ctx, account.PrimaryAddress, sinceBlock)
	if err != nil {
		return fmt.Errorf("failed to list incoming transfers: %w", err)
	}

	vaults, err := s.db.GetVaultAddresses(ctx, account.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load vault addresses: %w", err)
	}
	vaultSet := make(map[string]struct{}, len(vaults))
	for _, v := range vaults {
		vaultSet[pkg.NormalizeAddress(v)] = struct{}{}
	}

	token := pkg.NormalizeAddress(s.cfg.Chain.TokenAddress)
	recorded := 0

	for _, transfer := range transfers {
		if pkg.NormalizeAddress(transfer.TokenAddress) != token {
			continue
		}
		if _, fromVault := vaultSet[pkg.NormalizeAddress(transfer.FromAddress)]; fromVault {
			continue
		}

		deposit := &model.IncomingDepositDocument{
			TxHash:       transfer.TxHash,
			AccountID:    account.AccountID,
			FromAddress:  pkg.NormalizeAddress(transfer.FromAddress),
			TokenAddress: token,
			Amount:       transfer.Amount,
			BlockNumber:  transfer.BlockNumber,
			Timestamp:    transfer.Timestamp,
		}

		if err := s.db.SaveIncomingDeposit(ctx, deposit); err != nil {
			if db.IsDuplicateKeyError(err) {
				continue
			}
			return fmt.Errorf("failed to record incoming deposit %s: %w", transfer.TxHash, err)
		}
		recorded++
	}

	if recorded > 0 {
		logger.Info().Int("deposits", recorded).Msg("Recorded new incoming deposits")
	}

	return nil
}

// markDepositsSwept links the account's recorded unswept deposits to the
// sweep transaction that moved their funds into the vault. Best effort; the
// sweep's own accounting does not depend on it.
func (s *Service) markDepositsSwept(ctx context.Context, accountID, sweptTxHash string) {
	logger := log.Ctx(ctx).With().Str("account_id", accountID).Logger()

	deposits, err := s.db.GetUnsweptIncomingDeposits(ctx, accountID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load unswept deposits")
		return
	}

	for _, deposit := range deposits {
		if err := s.db.MarkIncomingDepositSwept(ctx, deposit.TxHash, sweptTxHash, time.Now()); err != nil {
			logger.Warn().Err(err).Str("tx_hash", deposit.TxHash).Msg("Failed to mark deposit swept")
		}
	}
}
