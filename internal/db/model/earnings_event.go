package model

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/meridianfi/treasury-sweeper/internal/types"
)

const EarningsEventCollection = "earnings_events"

// EarningsEventDocument is one immutable ledger entry. The transaction hash
// is the primary key, which makes appends naturally idempotent.
type EarningsEventDocument struct {
	ID           string    `bson:"_id"`
	AccountID    string    `bson:"account_id"`
	Type         string    `bson:"type"`
	Timestamp    time.Time `bson:"timestamp"`
	Amount       string    `bson:"amount"`
	VaultAddress string    `bson:"vault_address"`
	APY          float64   `bson:"apy"`
	Shares       string    `bson:"shares"`
	Decimals     int       `bson:"decimals"`
}

// FromEarningsEvent converts the domain event into its stored form.
func FromEarningsEvent(accountID string, event *types.EarningsEvent) *EarningsEventDocument {
	shares := "0"
	if !event.Shares.IsNil() {
		shares = event.Shares.String()
	}

	return &EarningsEventDocument{
		ID:           event.ID,
		AccountID:    accountID,
		Type:         event.Type.String(),
		Timestamp:    event.Timestamp,
		Amount:       event.Amount.String(),
		VaultAddress: event.VaultAddress,
		APY:          event.APY,
		Shares:       shares,
		Decimals:     event.Decimals,
	}
}

// ToEarningsEvent converts the stored form back into the domain event.
func (d *EarningsEventDocument) ToEarningsEvent() (types.EarningsEvent, error) {
	amount, ok := sdkmath.NewIntFromString(d.Amount)
	if !ok {
		return types.EarningsEvent{}, fmt.Errorf("event %s has unparseable amount %q", d.ID, d.Amount)
	}

	shares, ok := sdkmath.NewIntFromString(d.Shares)
	if !ok {
		shares = sdkmath.ZeroInt()
	}

	return types.EarningsEvent{
		ID:           d.ID,
		Type:         types.EventType(d.Type),
		Timestamp:    d.Timestamp,
		Amount:       amount,
		VaultAddress: d.VaultAddress,
		APY:          d.APY,
		Shares:       shares,
		Decimals:     d.Decimals,
	}, nil
}
