package model

import "time"

const SweepConfigCollection = "sweep_configs"

// SweepConfigDocument is one account's sweep configuration. Created at
// onboarding, mutated only by reconfiguration, never deleted: disabling is
// the only way to turn sweeping off.
type SweepConfigDocument struct {
	AccountID             string    `bson:"_id"`
	VaultDestination      string    `bson:"vault_destination"`
	PercentageBasisPoints int64     `bson:"percentage_basis_points"`
	// APYBasisPoints is the vault's published rate at configuration time,
	// stamped onto deposit events the sweeper records.
	APYBasisPoints  int64     `bson:"apy_basis_points"`
	Enabled         bool      `bson:"enabled"`
	LastTriggeredAt time.Time `bson:"last_triggered_at,omitempty"`
	CreatedAt       time.Time `bson:"created_at"`
}

// APY returns the configured rate as a decimal percentage.
func (d *SweepConfigDocument) APY() float64 {
	return float64(d.APYBasisPoints) / 100
}
