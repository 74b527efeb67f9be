package chainclient

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"github.com/meridianfi/treasury-sweeper/internal/config"
)

// erc20ABIJSON is the minimal read surface shared by the stablecoin and the
// vault share token.
const erc20ABIJSON = `[
	{
		"inputs": [{"internalType": "address", "name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

type ChainClient struct {
	client       *ethclient.Client
	cfg          *config.ChainConfig
	erc20ABI     abi.ABI
	erc4626ABI   abi.ABI
	multicallABI abi.ABI
}

func NewChainClient(ctx context.Context, cfg *config.ChainConfig) (*ChainClient, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc endpoint: %w", err)
	}

	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 abi: %w", err)
	}
	erc4626ABI, err := abi.JSON(strings.NewReader(erc4626ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc4626 abi: %w", err)
	}
	multicallABI, err := abi.JSON(strings.NewReader(multicall3ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse multicall3 abi: %w", err)
	}

	return &ChainClient{
		client:       client,
		cfg:          cfg,
		erc20ABI:     erc20ABI,
		erc4626ABI:   erc4626ABI,
		multicallABI: multicallABI,
	}, nil
}

func (c *ChainClient) BalanceOf(ctx context.Context, tokenAddress, accountAddress string) (sdkmath.Int, error) {
	data, err := c.erc20ABI.Pack("balanceOf", common.HexToAddress(accountAddress))
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}

	tokenAddr := common.HexToAddress(tokenAddress)
	callForBalance := func() ([]byte, error) {
		return c.client.CallContract(ctx, ethereum.CallMsg{
			To:   &tokenAddr,
			Data: data,
		}, nil)
	}

	raw, err := clientCallWithRetry(callForBalance, c.cfg)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to read balance of %s: %w", accountAddress, err)
	}

	balance, err := c.unpackUint256(c.erc20ABI, "balanceOf", raw)
	if err != nil {
		return sdkmath.Int{}, err
	}

	return balance, nil
}

// AccountBalances reads the idle token balance and every vault share balance
// in one multicall. The token read is required; a vault that fails to answer
// is reported as zero shares.
func (c *ChainClient) AccountBalances(
	ctx context.Context, tokenAddress, accountAddress string, vaultAddresses []string,
) (sdkmath.Int, map[string]sdkmath.Int, error) {
	account := common.HexToAddress(accountAddress)
	data, err := c.erc20ABI.Pack("balanceOf", account)
	if err != nil {
		return sdkmath.Int{}, nil, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}

	calls := make([]Call, 0, len(vaultAddresses)+1)
	calls = append(calls, Call{
		Target:   common.HexToAddress(tokenAddress),
		CallData: data,
	})
	for _, vault := range vaultAddresses {
		calls = append(calls, Call{
			Target:       common.HexToAddress(vault),
			AllowFailure: true,
			CallData:     data,
		})
	}

	results, err := c.aggregate3(ctx, calls)
	if err != nil {
		return sdkmath.Int{}, nil, err
	}

	idle, err := c.unpackUint256(c.erc20ABI, "balanceOf", results[0].ReturnData)
	if err != nil {
		return sdkmath.Int{}, nil, fmt.Errorf("token %s: %w", tokenAddress, err)
	}

	shares := make(map[string]sdkmath.Int, len(vaultAddresses))
	for i, vault := range vaultAddresses {
		result := results[i+1]
		if !result.Success {
			shares[vault] = sdkmath.ZeroInt()
			continue
		}
		amount, err := c.unpackUint256(c.erc20ABI, "balanceOf", result.ReturnData)
		if err != nil {
			return sdkmath.Int{}, nil, fmt.Errorf("vault %s: %w", vault, err)
		}
		shares[vault] = amount
	}

	return idle, shares, nil
}

func (c *ChainClient) ConvertToAssets(
	ctx context.Context, sharesByVault map[string]sdkmath.Int,
) (map[string]sdkmath.Int, error) {
	assets := make(map[string]sdkmath.Int, len(sharesByVault))
	vaults := make([]string, 0, len(sharesByVault))
	calls := make([]Call, 0, len(sharesByVault))

	for vault, shares := range sharesByVault {
		if shares.IsNil() || !shares.IsPositive() {
			assets[vault] = sdkmath.ZeroInt()
			continue
		}
		data, err := c.erc4626ABI.Pack("convertToAssets", shares.BigInt())
		if err != nil {
			return nil, fmt.Errorf("failed to pack convertToAssets for vault %s: %w", vault, err)
		}
		vaults = append(vaults, vault)
		calls = append(calls, Call{
			Target:       common.HexToAddress(vault),
			AllowFailure: true,
			CallData:     data,
		})
	}

	if len(calls) == 0 {
		return assets, nil
	}

	results, err := c.aggregate3(ctx, calls)
	if err != nil {
		return nil, err
	}

	for i, vault := range vaults {
		if !results[i].Success {
			assets[vault] = sdkmath.ZeroInt()
			continue
		}
		amount, err := c.unpackUint256(c.erc4626ABI, "convertToAssets", results[i].ReturnData)
		if err != nil {
			return nil, fmt.Errorf("vault %s: %w", vault, err)
		}
		assets[vault] = amount
	}

	return assets, nil
}

func (c *ChainClient) unpackUint256(contractABI abi.ABI, method string, raw []byte) (sdkmath.Int, error) {
	out, err := contractABI.Unpack(method, raw)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}

	value, ok := out[0].(*big.Int)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("%s returned unexpected type %T", method, out[0])
	}

	return sdkmath.NewIntFromBigInt(value), nil
}

func clientCallWithRetry(
	call retry.RetryableFuncWithData[[]byte], cfg *config.ChainConfig,
) ([]byte, error) {
	result, err := retry.DoWithData(call, retry.Attempts(cfg.MaxRetryTimes), retry.Delay(cfg.RetryInterval), retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("failed to call the RPC client")
		}))

	if err != nil {
		return nil, err
	}
	return result, nil
}
