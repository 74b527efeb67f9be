package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/meridianfi/treasury-sweeper/internal/db"
	"github.com/meridianfi/treasury-sweeper/internal/types"
	"github.com/meridianfi/treasury-sweeper/pkg"
)

// GetSpendableBalance aggregates the account's idle on-chain balance with
// its vault holdings valued at current exchange rates. A missing account
// yields a zeroed summary rather than an error so callers can render an
// empty state.
func (s *Service) GetSpendableBalance(ctx context.Context, accountID string) (*types.SpendableBalance, error) {
	account, err := s.db.GetAccount(ctx, accountID)
	if err != nil {
		if db.IsNotFoundError(err) {
			return types.ZeroSpendableBalance(accountID), nil
		}
		return nil, fmt.Errorf("failed to resolve account %s: %w", accountID, err)
	}

	cacheKey := pkg.NormalizeAddress(account.PrimaryAddress)
	if s.balanceCache != nil {
		cached, err := s.balanceCache.Get(ctx, cacheKey)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("account_id", accountID).Msg("Balance cache lookup failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	vaults, err := s.db.GetVaultAddresses(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vault addresses: %w", err)
	}

	// idle balance and vault shares come from one multicall so both are
	// read at the same block
	idle, shares, err := s.chain.AccountBalances(ctx, s.cfg.Chain.TokenAddress, account.PrimaryAddress, vaults)
	if err != nil {
		return nil, fmt.Errorf("failed to read account balances: %w", err)
	}

	assets, err := s.chain.ConvertToAssets(ctx, shares)
	if err != nil {
		return nil, fmt.Errorf("failed to value vault shares: %w", err)
	}

	earning := sdkmath.ZeroInt()
	vaultBalances := make([]types.VaultBalance, 0, len(vaults))
	for _, vault := range vaults {
		vaultShares, ok := shares[vault]
		if !ok || vaultShares.IsNil() {
			vaultShares = sdkmath.ZeroInt()
		}
		vaultAssets, ok := assets[vault]
		if !ok || vaultAssets.IsNil() {
			vaultAssets = sdkmath.ZeroInt()
		}

		earning = earning.Add(vaultAssets)
		vaultBalances = append(vaultBalances, types.VaultBalance{
			VaultAddress: vault,
			Shares:       vaultShares,
			Assets:       vaultAssets,
		})
	}
	sort.Slice(vaultBalances, func(i, j int) bool {
		return vaultBalances[i].VaultAddress < vaultBalances[j].VaultAddress
	})

	balance := &types.SpendableBalance{
		AccountID:        accountID,
		AccountFound:     true,
		IdleBalance:      idle,
		EarningBalance:   earning,
		SpendableBalance: idle.Add(earning),
		VaultBalances:    vaultBalances,
		FetchedAt:        time.Now(),
	}

	if s.balanceCache != nil {
		if err := s.balanceCache.Set(ctx, cacheKey, balance); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("account_id", accountID).Msg("Failed to cache balance")
		}
	}

	return balance, nil
}
