package chainclient

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/meridianfi/treasury-sweeper/internal/types"
	"github.com/meridianfi/treasury-sweeper/pkg"
)

// erc4626ABIJSON covers the vault functions and the Deposit event the
// sweeper needs from tokenized vaults.
const erc4626ABIJSON = `[
	{
		"inputs": [{"internalType": "uint256", "name": "shares", "type": "uint256"}],
		"name": "convertToAssets",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
			{"indexed": true, "internalType": "address", "name": "owner", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "assets", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "shares", "type": "uint256"}
		],
		"name": "Deposit",
		"type": "event"
	}
]`

// DecodeDepositEvent scans receipt logs for the vault's ERC-4626 Deposit
// event. Minted shares are only known from this event, so a receipt without
// it yields found=false and the caller falls back to zero shares.
func (c *ChainClient) DecodeDepositEvent(
	logs []types.TxLog, vaultAddress string,
) (assets, shares sdkmath.Int, found bool) {
	depositTopic := c.erc4626ABI.Events["Deposit"].ID
	vault := pkg.NormalizeAddress(vaultAddress)

	for _, entry := range logs {
		if pkg.NormalizeAddress(entry.Address) != vault {
			continue
		}
		if len(entry.Topics) == 0 || common.HexToHash(entry.Topics[0]) != depositTopic {
			continue
		}

		data := common.FromHex(entry.Data)
		values, err := c.erc4626ABI.Events["Deposit"].Inputs.NonIndexed().Unpack(data)
		if err != nil || len(values) != 2 {
			continue
		}

		assetsBig, okAssets := values[0].(*big.Int)
		sharesBig, okShares := values[1].(*big.Int)
		if !okAssets || !okShares {
			continue
		}

		return sdkmath.NewIntFromBigInt(assetsBig), sdkmath.NewIntFromBigInt(sharesBig), true
	}

	return sdkmath.ZeroInt(), sdkmath.ZeroInt(), false
}
