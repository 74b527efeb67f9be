package chainclient

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/meridianfi/treasury-sweeper/internal/types"
)

type ChainInterface interface {
	// BalanceOf returns the token balance of an account.
	BalanceOf(ctx context.Context, tokenAddress, accountAddress string) (sdkmath.Int, error)
	// AccountBalances returns the account's idle token balance together with
	// its ERC-4626 share balance in each vault, batched through a single
	// multicall so all reads see the same block.
	AccountBalances(ctx context.Context, tokenAddress, accountAddress string, vaultAddresses []string) (sdkmath.Int, map[string]sdkmath.Int, error)
	// ConvertToAssets resolves vault shares into underlying asset amounts at
	// the vaults' current exchange rates, batched through a single multicall.
	ConvertToAssets(ctx context.Context, sharesByVault map[string]sdkmath.Int) (map[string]sdkmath.Int, error)
	// DecodeDepositEvent scans receipt logs for the vault's Deposit event and
	// returns the deposited assets and minted shares.
	DecodeDepositEvent(logs []types.TxLog, vaultAddress string) (assets, shares sdkmath.Int, found bool)
}
