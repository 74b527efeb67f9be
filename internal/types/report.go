package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// SweepState is the terminal state a single account reached within one
// sweep cycle.
type SweepState string

func (s SweepState) String() string {
	return string(s)
}

const (
	// SweepStateNoBaseline means the baseline was just initialized from the
	// current balance; nothing is swept on first observation.
	SweepStateNoBaseline SweepState = "no_baseline"
	// SweepStateNoDelta means the balance did not increase (or the sweep
	// amount rounded to zero); the baseline was advanced, no tx sent.
	SweepStateNoDelta SweepState = "no_delta"
	// SweepStateRecordSuccess means a deposit was executed and recorded.
	SweepStateRecordSuccess SweepState = "record_success"
	// SweepStateRecordFailure means simulation, submission or the receipt
	// failed; the baseline is left stale so the delta is retried next cycle.
	SweepStateRecordFailure SweepState = "record_failure"
	// SweepStateConfigError means the config is invalid (e.g. bad vault
	// destination) and is skipped until reconfigured.
	SweepStateConfigError SweepState = "config_error"
	// SweepStateObservationError means the balance read failed; the account
	// is skipped this cycle with no state mutation.
	SweepStateObservationError SweepState = "observation_error"
)

// SweepResult is the outcome of processing one sweep config.
type SweepResult struct {
	AccountID   string
	State       SweepState
	SweptAmount sdkmath.Int
	TxHash      string
	Err         error
}

// CycleReport summarizes one full sweep cycle across all configs.
type CycleReport struct {
	CycleID    string
	StartedAt  time.Time
	FinishedAt time.Time
	// Skipped is set when the cycle did not run because a previous one was
	// still in flight.
	Skipped bool
	Results []SweepResult
}

// Succeeded counts accounts that recorded a successful sweep.
func (r *CycleReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.State == SweepStateRecordSuccess {
			n++
		}
	}
	return n
}

// Failed counts accounts that ended in an error state.
func (r *CycleReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		switch res.State {
		case SweepStateRecordFailure, SweepStateConfigError, SweepStateObservationError:
			n++
		}
	}
	return n
}

// VaultBalance is one vault's share of an account's earning balance.
type VaultBalance struct {
	VaultAddress string
	Shares       sdkmath.Int
	Assets       sdkmath.Int
}

// SpendableBalance is the consumer-facing balance summary combining idle
// and vault-held funds. A missing primary account yields a zeroed summary
// with AccountFound=false rather than an error, so callers can render a
// neutral empty state.
type SpendableBalance struct {
	AccountID        string
	AccountFound     bool
	IdleBalance      sdkmath.Int
	EarningBalance   sdkmath.Int
	SpendableBalance sdkmath.Int
	VaultBalances    []VaultBalance
	FetchedAt        time.Time
}

// ZeroSpendableBalance returns the neutral summary used when the account
// has no primary on-chain address.
func ZeroSpendableBalance(accountID string) *SpendableBalance {
	return &SpendableBalance{
		AccountID:        accountID,
		AccountFound:     false,
		IdleBalance:      sdkmath.ZeroInt(),
		EarningBalance:   sdkmath.ZeroInt(),
		SpendableBalance: sdkmath.ZeroInt(),
		FetchedAt:        time.Now(),
	}
}
