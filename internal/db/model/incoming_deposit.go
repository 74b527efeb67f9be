package model

import "time"

const IncomingDepositCollection = "incoming_deposits"

// IncomingDepositDocument records an inbound token transfer observed for an
// account, keyed by transaction hash so repeated syncs are duplicate-safe.
// Transfers originating from the account's own vaults are withdrawals, not
// new funds, and are filtered before this document is written.
type IncomingDepositDocument struct {
	TxHash       string    `bson:"_id"`
	AccountID    string    `bson:"account_id"`
	FromAddress  string    `bson:"from_address"`
	TokenAddress string    `bson:"token_address"`
	Amount       string    `bson:"amount"`
	BlockNumber  uint64    `bson:"block_number"`
	Timestamp    time.Time `bson:"timestamp"`
	Swept        bool      `bson:"swept"`
	SweptTxHash  string    `bson:"swept_tx_hash,omitempty"`
	SweptAt      time.Time `bson:"swept_at,omitempty"`
}
