package config

import (
	"errors"
	"time"
)

// CacheConfig describes the Redis instance caching balance summaries.
type CacheConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	// BalanceTTL is how long a cached balance summary stays valid. Tens of
	// seconds absorbs display-request bursts without re-hitting the chain.
	BalanceTTL time.Duration `mapstructure:"balance-ttl"`
}

func (cfg *CacheConfig) Validate() error {
	if cfg.Address == "" {
		return errors.New("cache address is required")
	}
	if cfg.BalanceTTL <= 0 {
		return errors.New("cache balance-ttl must be positive")
	}

	return nil
}
