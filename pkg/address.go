package pkg

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ValidateEVMAddress checks that the string is a well-formed 20-byte hex
// address. The zero address is rejected as well since it is never a valid
// sweep destination.
func ValidateEVMAddress(address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid EVM address: %q", address)
	}
	if common.HexToAddress(address) == (common.Address{}) {
		return fmt.Errorf("zero address is not allowed")
	}

	return nil
}

// NormalizeAddress lower-cases a hex address so it can be used as a stable
// map or cache key.
func NormalizeAddress(address string) string {
	return strings.ToLower(address)
}
