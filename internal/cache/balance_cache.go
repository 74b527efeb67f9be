package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridianfi/treasury-sweeper/internal/config"
	"github.com/meridianfi/treasury-sweeper/internal/types"
)

const balanceKeyPrefix = "spendable_balance:"

// BalanceCacheInterface caches computed spendable balances so repeated
// lookups within the TTL skip the chain round trips. Entries are keyed by
// the account's normalized lower-cased primary address.
type BalanceCacheInterface interface {
	Get(ctx context.Context, address string) (*types.SpendableBalance, error)
	Set(ctx context.Context, address string, balance *types.SpendableBalance) error
	Invalidate(ctx context.Context, address string) error
	Close() error
}

type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewBalanceCache(cfg *config.CacheConfig) *BalanceCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
	})

	return &BalanceCache{
		client: client,
		ttl:    cfg.BalanceTTL,
	}
}

// Get returns the cached balance, or nil without error on a miss.
func (c *BalanceCache) Get(ctx context.Context, address string) (*types.SpendableBalance, error) {
	raw, err := c.client.Get(ctx, balanceKey(address)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached balance for %s: %w", address, err)
	}

	var balance types.SpendableBalance
	if err := json.Unmarshal([]byte(raw), &balance); err != nil {
		return nil, fmt.Errorf("failed to decode cached balance for %s: %w", address, err)
	}

	return &balance, nil
}

func (c *BalanceCache) Set(ctx context.Context, address string, balance *types.SpendableBalance) error {
	encoded, err := json.Marshal(balance)
	if err != nil {
		return fmt.Errorf("failed to encode balance for %s: %w", address, err)
	}

	if err := c.client.Set(ctx, balanceKey(address), encoded, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache balance for %s: %w", address, err)
	}

	return nil
}

// Invalidate drops the cached balance, used after a sweep changes the
// account's split between idle and earning funds.
func (c *BalanceCache) Invalidate(ctx context.Context, address string) error {
	if err := c.client.Del(ctx, balanceKey(address)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached balance for %s: %w", address, err)
	}

	return nil
}

func (c *BalanceCache) Close() error {
	return c.client.Close()
}

func balanceKey(address string) string {
	return balanceKeyPrefix + address
}
