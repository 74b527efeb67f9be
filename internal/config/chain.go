package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ChainConfig describes the EVM endpoint the sweeper reads balances from.
type ChainConfig struct {
	// RPCEndpoint is the full URL of the JSON-RPC endpoint.
	RPCEndpoint string `mapstructure:"rpc-endpoint"`
	// TokenAddress is the stablecoin contract the sweeper watches.
	TokenAddress string `mapstructure:"token-address"`
	// TokenDecimals is the token's decimal precision (6 for USDC).
	TokenDecimals int `mapstructure:"token-decimals"`
	// MulticallAddress is the Multicall3 contract used to batch reads.
	MulticallAddress string        `mapstructure:"multicall-address"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRetryTimes    uint          `mapstructure:"max-retry-times"`
	RetryInterval    time.Duration `mapstructure:"retry-interval"`
}

func (cfg *ChainConfig) Validate() error {
	if cfg.RPCEndpoint == "" {
		return errors.New("chain rpc-endpoint is required")
	}
	if !common.IsHexAddress(cfg.TokenAddress) {
		return fmt.Errorf("chain token-address is not a valid address: %q", cfg.TokenAddress)
	}
	if cfg.TokenDecimals <= 0 {
		return errors.New("chain token-decimals must be positive")
	}
	if !common.IsHexAddress(cfg.MulticallAddress) {
		return fmt.Errorf("chain multicall-address is not a valid address: %q", cfg.MulticallAddress)
	}
	if cfg.Timeout <= 0 {
		return errors.New("chain timeout must be positive")
	}

	return nil
}
