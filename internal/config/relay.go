package config

import (
	"errors"
	"time"
)

// RelayConfig points at the transaction relay service that simulates,
// submits and confirms contract calls on the sweeper's behalf. Signing and
// gas policy live entirely on the relay side.
type RelayConfig struct {
	BaseURL       string        `mapstructure:"base-url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetryTimes uint          `mapstructure:"max-retry-times"`
	RetryInterval time.Duration `mapstructure:"retry-interval"`
	// ReceiptTimeout bounds how long one account's receipt wait may hold up
	// a sweep cycle before the account is marked failed for this cycle.
	ReceiptTimeout time.Duration `mapstructure:"receipt-timeout"`
	// ReceiptPollInterval is how often the relay is polled for a pending
	// transaction's receipt.
	ReceiptPollInterval time.Duration `mapstructure:"receipt-poll-interval"`
}

func (cfg *RelayConfig) Validate() error {
	if cfg.BaseURL == "" {
		return errors.New("relay base-url is required")
	}
	if cfg.Timeout <= 0 {
		return errors.New("relay timeout must be positive")
	}
	if cfg.ReceiptTimeout <= 0 {
		return errors.New("relay receipt-timeout must be positive")
	}
	if cfg.ReceiptPollInterval <= 0 {
		return errors.New("relay receipt-poll-interval must be positive")
	}

	return nil
}
