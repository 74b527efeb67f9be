package model

import "time"

const AccountCollection = "accounts"

// AccountDocument maps a treasury account to its primary on-chain address.
// The sweep module flag mirrors the on-chain module installation state; a
// config is only processed while the flag is set.
type AccountDocument struct {
	AccountID          string    `bson:"_id"`
	PrimaryAddress     string    `bson:"primary_address"`
	SweepModuleEnabled bool      `bson:"sweep_module_enabled"`
	CreatedAt          time.Time `bson:"created_at"`
}
