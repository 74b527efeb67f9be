package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

type EventType string

func (e EventType) String() string {
	return string(e)
}

const (
	EventTypeDeposit    EventType = "deposit"
	EventTypeWithdrawal EventType = "withdrawal"
)

// DefaultTokenDecimals is the decimal precision assumed for events that do
// not carry their own (USDC-style 6-decimal stablecoins).
const DefaultTokenDecimals = 6

// EarningsEvent is a single immutable entry of the earnings ledger. Events
// are append-only; positions and accrued yield are always recomputed from
// the full event history, never from a running total.
type EarningsEvent struct {
	// ID is unique across the ledger, typically the transaction hash.
	ID        string
	Type      EventType
	Timestamp time.Time
	// Amount is denominated in the token's smallest unit.
	Amount       sdkmath.Int
	VaultAddress string
	// APY is the decimal percentage rate published by the vault at event
	// time, e.g. 8 for 8%.
	APY      float64
	Shares   sdkmath.Int
	Decimals int
}

// TokenDecimals returns the event's decimal precision, falling back to the
// default when unset.
func (e *EarningsEvent) TokenDecimals() int {
	if e.Decimals <= 0 {
		return DefaultTokenDecimals
	}
	return e.Decimals
}
