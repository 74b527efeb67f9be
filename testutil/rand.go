package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/brianvoe/gofakeit/v7"

	"github.com/meridianfi/treasury-sweeper/internal/types"
)

// RandomAlphaNum generates random alphanumeric string
// in case length <= 0 it returns empty string
func RandomAlphaNum(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	if length <= 0 {
		return "", fmt.Errorf("length must be greater than 0")
	}

	randomString := make([]byte, length)
	for i := range randomString {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		randomString[i] = charset[num.Int64()]
	}

	return string(randomString), nil
}

// RandomEVMAddress returns a random 20-byte hex address.
func RandomEVMAddress() string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	return "0x" + hex.EncodeToString(b)
}

// RandomTxHash returns a random 32-byte hex transaction hash.
func RandomTxHash() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return "0x" + hex.EncodeToString(b)
}

// RandomAmount returns a random positive amount in smallest units, up to
// max (exclusive).
func RandomAmount(max int64) sdkmath.Int {
	return sdkmath.NewInt(int64(gofakeit.Number(1, int(max-1))))
}

// RandomDepositEvent builds a deposit event with random identifiers for the
// given vault.
func RandomDepositEvent(vault string, amount int64, apy float64, ts time.Time) types.EarningsEvent {
	return types.EarningsEvent{
		ID:           RandomTxHash(),
		Type:         types.EventTypeDeposit,
		Timestamp:    ts,
		Amount:       sdkmath.NewInt(amount),
		VaultAddress: vault,
		APY:          apy,
		Shares:       sdkmath.NewInt(amount),
	}
}
