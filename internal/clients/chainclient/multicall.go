package chainclient

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// multicall3ABIJSON covers the single read-only entrypoint the sweeper uses
// on the canonical Multicall3 deployment.
const multicall3ABIJSON = `[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "address", "name": "target", "type": "address"},
					{"internalType": "bool", "name": "allowFailure", "type": "bool"},
					{"internalType": "bytes", "name": "callData", "type": "bytes"}
				],
				"internalType": "struct Multicall3.Call3[]",
				"name": "calls",
				"type": "tuple[]"
			}
		],
		"name": "aggregate3",
		"outputs": [
			{
				"components": [
					{"internalType": "bool", "name": "success", "type": "bool"},
					{"internalType": "bytes", "name": "returnData", "type": "bytes"}
				],
				"internalType": "struct Multicall3.Result[]",
				"name": "returnData",
				"type": "tuple[]"
			}
		],
		"stateMutability": "payable",
		"type": "function"
	}
]`

// Call is one batched sub-call for aggregate3. Field names line up with the
// ABI tuple components so go-ethereum can pack them.
type Call struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

// Result is the outcome of one batched sub-call.
type Result struct {
	Success    bool
	ReturnData []byte
}

// aggregate3 executes the batch through the Multicall3 contract and returns
// per-call results in input order.
func (c *ChainClient) aggregate3(ctx context.Context, calls []Call) ([]Result, error) {
	data, err := c.multicallABI.Pack("aggregate3", calls)
	if err != nil {
		return nil, fmt.Errorf("failed to pack aggregate3 calls: %w", err)
	}

	multicallAddr := common.HexToAddress(c.cfg.MulticallAddress)
	callForBatch := func() ([]byte, error) {
		return c.client.CallContract(ctx, ethereum.CallMsg{
			To:   &multicallAddr,
			Data: data,
		}, nil)
	}

	raw, err := clientCallWithRetry(callForBatch, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("multicall aggregate3 failed: %w", err)
	}

	out, err := c.multicallABI.Unpack("aggregate3", raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack aggregate3 results: %w", err)
	}

	results := *abi.ConvertType(out[0], new([]Result)).(*[]Result)
	if len(results) != len(calls) {
		return nil, fmt.Errorf("multicall returned %d results for %d calls", len(results), len(calls))
	}

	return results, nil
}
