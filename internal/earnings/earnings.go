// Package earnings reconstructs per-deposit positions from the earnings
// ledger and computes accrued yield. Everything here is a pure function over
// an event slice: no I/O, no persisted derived state, deterministic given
// the same events and query time. Amounts stay in smallest units on
// arbitrary-precision integers until the display boundary.
package earnings

import (
	"math"
	"sort"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/meridianfi/treasury-sweeper/internal/types"
)

const (
	secondsPerYear = 365 * 24 * 60 * 60

	// AggregateDecimals is the precision aggregates are normalized to so
	// vaults with different asset decimals can be summed together.
	AggregateDecimals = 18

	basisPointDenominator = 10000
)

// DepositPosition is a single deposit's remaining balance, reduced over time
// by proportional withdrawal allocation. Invariant:
// 0 <= CurrentAmount <= OriginalAmount.
type DepositPosition struct {
	ID             string
	Timestamp      time.Time
	OriginalAmount sdkmath.Int
	CurrentAmount  sdkmath.Int
	APY            float64
	Decimals       int
}

// VaultPosition groups the deposit positions held in one vault. CurrentAPY
// is the APY of the most recent deposit, used as the forward-looking rate.
type VaultPosition struct {
	VaultAddress string
	Deposits     []DepositPosition
	CurrentAPY   float64
	Decimals     int
}

// TotalCurrentAmount sums the remaining amounts across the vault's deposits.
func (v *VaultPosition) TotalCurrentAmount() sdkmath.Int {
	total := sdkmath.ZeroInt()
	for _, d := range v.Deposits {
		total = total.Add(d.CurrentAmount)
	}
	return total
}

// BuildPositions replays the event log in chronological order and returns
// the derived positions per vault. Input order does not matter; events are
// sorted by timestamp before processing since later events depend on
// cumulative state.
func BuildPositions(events []types.EarningsEvent) map[string]*VaultPosition {
	sorted := make([]types.EarningsEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	positions := make(map[string]*VaultPosition)
	for i := range sorted {
		event := &sorted[i]

		vault, ok := positions[event.VaultAddress]
		if !ok {
			vault = &VaultPosition{
				VaultAddress: event.VaultAddress,
				CurrentAPY:   event.APY,
				Decimals:     event.TokenDecimals(),
			}
			positions[event.VaultAddress] = vault
		}

		switch event.Type {
		case types.EventTypeDeposit:
			vault.Deposits = append(vault.Deposits, DepositPosition{
				ID:             event.ID,
				Timestamp:      event.Timestamp,
				OriginalAmount: event.Amount,
				CurrentAmount:  event.Amount,
				APY:            event.APY,
				Decimals:       event.TokenDecimals(),
			})
			// later deposits' rate supersedes earlier ones for display
			vault.CurrentAPY = event.APY
			vault.Decimals = event.TokenDecimals()
		case types.EventTypeWithdrawal:
			applyProportionalWithdrawal(vault, event.Amount)
		}
	}

	return positions
}

// applyProportionalWithdrawal reduces every position by the withdrawal's
// share of the vault total, expressed in basis points. Truncating integer
// division is deliberate: it is deterministic, and the <=1 unit residue per
// withdrawal is acceptable because only aggregate earnings are reported.
func applyProportionalWithdrawal(vault *VaultPosition, amount sdkmath.Int) {
	total := vault.TotalCurrentAmount()
	if total.IsZero() {
		// withdrawal against an empty vault should not occur with valid
		// data; treat as a no-op
		return
	}

	ratio := amount.MulRaw(basisPointDenominator).Quo(total)
	for i := range vault.Deposits {
		cut := vault.Deposits[i].CurrentAmount.Mul(ratio).QuoRaw(basisPointDenominator)
		vault.Deposits[i].CurrentAmount = vault.Deposits[i].CurrentAmount.Sub(cut)
	}
}

// APYBasisPoints converts a decimal percentage APY to basis points.
func APYBasisPoints(apy float64) int64 {
	return int64(math.Round(apy * 100))
}

// CalculatePositionEarnings returns the yield accrued by one position up to
// now: currentAmount * apyBps * elapsedSeconds / (10000 * secondsPerYear).
func CalculatePositionEarnings(position DepositPosition, now time.Time) sdkmath.Int {
	if !position.CurrentAmount.IsPositive() {
		return sdkmath.ZeroInt()
	}

	elapsedSeconds := int64(now.Sub(position.Timestamp) / time.Second)
	if elapsedSeconds <= 0 {
		return sdkmath.ZeroInt()
	}

	return position.CurrentAmount.
		MulRaw(APYBasisPoints(position.APY)).
		MulRaw(elapsedSeconds).
		QuoRaw(basisPointDenominator).
		QuoRaw(secondsPerYear)
}

// EarningsSummary aggregates accrued yield across vaults. All figures are
// normalized to AggregateDecimals.
type EarningsSummary struct {
	TotalEarnings  sdkmath.Int
	ByVault        map[string]sdkmath.Int
	TotalPrincipal sdkmath.Int
}

// CalculateTotalEarnings builds positions from the event log and sums the
// accrued yield per vault and overall.
func CalculateTotalEarnings(events []types.EarningsEvent, now time.Time) EarningsSummary {
	positions := BuildPositions(events)

	summary := EarningsSummary{
		TotalEarnings:  sdkmath.ZeroInt(),
		ByVault:        make(map[string]sdkmath.Int, len(positions)),
		TotalPrincipal: sdkmath.ZeroInt(),
	}

	for vaultAddress, vault := range positions {
		vaultEarnings := sdkmath.ZeroInt()
		for _, deposit := range vault.Deposits {
			accrued := CalculatePositionEarnings(deposit, now)
			vaultEarnings = vaultEarnings.Add(ScaleAmount(accrued, deposit.Decimals, AggregateDecimals))
			summary.TotalPrincipal = summary.TotalPrincipal.Add(
				ScaleAmount(deposit.CurrentAmount, deposit.Decimals, AggregateDecimals))
		}
		summary.ByVault[vaultAddress] = vaultEarnings
		summary.TotalEarnings = summary.TotalEarnings.Add(vaultEarnings)
	}

	return summary
}

// CalculateEarningsPerSecond returns the current aggregate accrual rate per
// second over all open positions, normalized to AggregateDecimals. It lets
// a live display tick without re-querying the event log.
func CalculateEarningsPerSecond(events []types.EarningsEvent) sdkmath.Int {
	positions := BuildPositions(events)

	total := sdkmath.ZeroInt()
	for _, vault := range positions {
		for _, deposit := range vault.Deposits {
			if !deposit.CurrentAmount.IsPositive() {
				continue
			}
			perSecond := deposit.CurrentAmount.
				MulRaw(APYBasisPoints(deposit.APY)).
				QuoRaw(basisPointDenominator).
				QuoRaw(secondsPerYear)
			total = total.Add(ScaleAmount(perSecond, deposit.Decimals, AggregateDecimals))
		}
	}

	return total
}

// StreamBootstrap carries everything a live earnings display needs to start
// ticking: the accrued value at bootstrap time, the per-second rate, and
// the open principal.
type StreamBootstrap struct {
	InitialEarnings   sdkmath.Int
	EarningsPerSecond sdkmath.Int
	TotalPrincipal    sdkmath.Int
}

// InitializeEarningsStream computes the bootstrap values for a live
// incrementing display in one pass.
func InitializeEarningsStream(events []types.EarningsEvent, now time.Time) StreamBootstrap {
	summary := CalculateTotalEarnings(events, now)

	return StreamBootstrap{
		InitialEarnings:   summary.TotalEarnings,
		EarningsPerSecond: CalculateEarningsPerSecond(events),
		TotalPrincipal:    summary.TotalPrincipal,
	}
}

// ScaleAmount converts an amount between decimal precisions. Scaling down
// truncates.
func ScaleAmount(amount sdkmath.Int, fromDecimals, targetDecimals int) sdkmath.Int {
	if fromDecimals == targetDecimals {
		return amount
	}

	if fromDecimals < targetDecimals {
		factor := sdkmath.NewIntWithDecimal(1, targetDecimals-fromDecimals)
		return amount.Mul(factor)
	}

	divisor := sdkmath.NewIntWithDecimal(1, fromDecimals-targetDecimals)
	return amount.Quo(divisor)
}
