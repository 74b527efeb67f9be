package earnings

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// FormatAmount renders a smallest-unit amount as a decimal string, dividing
// by 10^decimals. This is the only place precision leaves the integer
// domain, and it happens at the display boundary only.
func FormatAmount(amount sdkmath.Int, decimals int) string {
	if decimals <= 0 {
		return amount.String()
	}

	negative := amount.IsNegative()
	abs := amount.Abs()

	divisor := sdkmath.NewIntWithDecimal(1, decimals)
	whole := abs.Quo(divisor)
	remainder := abs.Mod(divisor)

	fraction := strings.TrimRight(
		fmt.Sprintf("%0*s", decimals, remainder.String()), "0")

	out := whole.String()
	if fraction != "" {
		out += "." + fraction
	}
	if negative {
		out = "-" + out
	}
	return out
}
