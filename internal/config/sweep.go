package config

import (
	"errors"
	"time"
)

type SweepConfig struct {
	// SweepPollingInterval is how often the daemon runs a sweep cycle when
	// started with start-server. One-shot runs via run-sweep ignore it.
	SweepPollingInterval time.Duration `mapstructure:"sweep-polling-interval"`
	// DepositSyncEnabled toggles incoming-transfer bookkeeping before each
	// account's sweep.
	DepositSyncEnabled bool `mapstructure:"deposit-sync-enabled"`
}

func (cfg *SweepConfig) Validate() error {
	if cfg.SweepPollingInterval <= 0 {
		return errors.New("sweep-polling-interval must be positive")
	}

	return nil
}
