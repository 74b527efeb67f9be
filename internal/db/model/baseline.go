package model

import "time"

const AllocationBaselineCollection = "allocation_baselines"

// AllocationBaselineDocument tracks the last observed on-chain balance per
// account, 1:1 with the account's primary address. Balances are stored as
// smallest-unit decimal strings since they can exceed int64.
//
// LastCheckedBalance is advanced to the most recently observed balance
// after every successful poll, whether or not a sweep happened. On failure
// it is deliberately left stale so the same delta is recomputed and
// retried next cycle.
type AllocationBaselineDocument struct {
	AccountID          string    `bson:"_id"`
	LastCheckedBalance string    `bson:"last_checked_balance"`
	TotalDeposited     string    `bson:"total_deposited"`
	LastUpdated        time.Time `bson:"last_updated"`
}
