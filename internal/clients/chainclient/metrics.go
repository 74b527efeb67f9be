package chainclient

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/meridianfi/treasury-sweeper/internal/observability/metrics"
	"github.com/meridianfi/treasury-sweeper/internal/types"
)

type chainClientWithMetrics struct {
	chain ChainInterface
}

func NewChainClientWithMetrics(chain ChainInterface) *chainClientWithMetrics {
	return &chainClientWithMetrics{chain: chain}
}

func (c *chainClientWithMetrics) BalanceOf(ctx context.Context, tokenAddress, accountAddress string) (sdkmath.Int, error) {
	return runChainClientMethodWithMetrics("BalanceOf", func() (sdkmath.Int, error) {
		return c.chain.BalanceOf(ctx, tokenAddress, accountAddress)
	})
}

func (c *chainClientWithMetrics) AccountBalances(ctx context.Context, tokenAddress, accountAddress string, vaultAddresses []string) (sdkmath.Int, map[string]sdkmath.Int, error) {
	type accountBalances struct {
		idle   sdkmath.Int
		shares map[string]sdkmath.Int
	}

	result, err := runChainClientMethodWithMetrics("AccountBalances", func() (accountBalances, error) {
		idle, shares, err := c.chain.AccountBalances(ctx, tokenAddress, accountAddress, vaultAddresses)
		return accountBalances{idle: idle, shares: shares}, err
	})
	return result.idle, result.shares, err
}

func (c *chainClientWithMetrics) ConvertToAssets(ctx context.Context, sharesByVault map[string]sdkmath.Int) (map[string]sdkmath.Int, error) {
	return runChainClientMethodWithMetrics("ConvertToAssets", func() (map[string]sdkmath.Int, error) {
		return c.chain.ConvertToAssets(ctx, sharesByVault)
	})
}

// DecodeDepositEvent is pure log inspection, there is no call to time.
func (c *chainClientWithMetrics) DecodeDepositEvent(logs []types.TxLog, vaultAddress string) (sdkmath.Int, sdkmath.Int, bool) {
	return c.chain.DecodeDepositEvent(logs, vaultAddress)
}

func runChainClientMethodWithMetrics[T any](method string, f func() (T, error)) (T, error) {
	startTime := time.Now()
	v, err := f()
	duration := time.Since(startTime)

	metrics.RecordChainClientLatency(duration, method, err != nil)
	return v, err
}
