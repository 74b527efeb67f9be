package relayclient

import (
	"context"
	"time"

	"github.com/meridianfi/treasury-sweeper/internal/types"
)

// VaultDeposit is the intent submitted to the relay: move Amount of the
// token from the account's primary address into the vault. Signing and gas
// policy are the relay's concern.
type VaultDeposit struct {
	AccountAddress string `json:"accountAddress"`
	VaultAddress   string `json:"vaultAddress"`
	TokenAddress   string `json:"tokenAddress"`
	Amount         string `json:"amount"`
}

// Simulation is the relay's dry-run verdict for a deposit.
type Simulation struct {
	GasEstimate uint64 `json:"gasEstimate"`
}

// Receipt is the confirmed outcome of a submitted deposit.
type Receipt struct {
	TxHash      string        `json:"txHash"`
	Status      string        `json:"status"`
	BlockNumber uint64        `json:"blockNumber"`
	Logs        []types.TxLog `json:"logs"`
}

const ReceiptStatusSuccess = "success"

func (r *Receipt) Succeeded() bool {
	return r.Status == ReceiptStatusSuccess
}

// IncomingTransfer is one inbound token transfer reported by the relay's
// transfer index.
type IncomingTransfer struct {
	TxHash       string    `json:"txHash"`
	FromAddress  string    `json:"fromAddress"`
	ToAddress    string    `json:"toAddress"`
	TokenAddress string    `json:"tokenAddress"`
	Amount       string    `json:"amount"`
	BlockNumber  uint64    `json:"blockNumber"`
	Timestamp    time.Time `json:"timestamp"`
}

type RelayInterface interface {
	// Simulate dry-runs the deposit. A revert surfaces as a *RevertError.
	Simulate(ctx context.Context, deposit *VaultDeposit) (*Simulation, error)
	// Send submits the deposit and returns the relay's transaction id.
	Send(ctx context.Context, deposit *VaultDeposit) (string, error)
	// AwaitReceipt polls until the transaction confirms or the configured
	// receipt timeout elapses.
	AwaitReceipt(ctx context.Context, txID string) (*Receipt, error)
	// ListIncomingTransfers returns inbound transfers to the address observed
	// at or after the given block.
	ListIncomingTransfers(ctx context.Context, address string, sinceBlock uint64) ([]IncomingTransfer, error)
}
