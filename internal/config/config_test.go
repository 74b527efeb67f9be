package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Db: DbConfig{
			Username: "test",
			Password: "test",
			Address:  "mongodb://localhost:27017",
			DbName:   "test",
		},
		Chain: ChainConfig{
			RPCEndpoint:      "https://mainnet.base.org",
			TokenAddress:     "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			TokenDecimals:    6,
			MulticallAddress: "0xcA11bde05977b3631167028862bE2a173976CA11",
			Timeout:          10 * time.Second,
			MaxRetryTimes:    3,
			RetryInterval:    time.Second,
		},
		Relay: RelayConfig{
			BaseURL:             "https://relay.internal:8443",
			Timeout:             15 * time.Second,
			MaxRetryTimes:       3,
			RetryInterval:       time.Second,
			ReceiptTimeout:      45 * time.Second,
			ReceiptPollInterval: 2 * time.Second,
		},
		Sweep: SweepConfig{
			SweepPollingInterval: 5 * time.Minute,
			DepositSyncEnabled:   true,
		},
		Cache: CacheConfig{
			Address:    "localhost:6379",
			BalanceTTL: 30 * time.Second,
		},
		Queue: QueueConfig{
			User:      "guest",
			Password:  "guest",
			URL:       "localhost:5672",
			QueueName: "sweep_results",
		},
		Metrics: MetricsConfig{
			Host: "0.0.0.0",
			Port: 2112,
		},
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("missing rpc endpoint", func(t *testing.T) {
		cfg := validConfig()
		cfg.Chain.RPCEndpoint = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("malformed token address", func(t *testing.T) {
		cfg := validConfig()
		cfg.Chain.TokenAddress = "not-an-address"
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero receipt timeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Relay.ReceiptTimeout = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero sweep polling interval", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sweep.SweepPollingInterval = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero cache ttl", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache.BalanceTTL = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("metrics port defaults when unset", func(t *testing.T) {
		cfg := validConfig()
		cfg.Metrics.Port = 0
		require.NoError(t, cfg.Validate())
		assert.Equal(t, defaultMetricsPort, cfg.Metrics.GetMetricsPort())
	})
}
