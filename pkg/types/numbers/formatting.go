package numbers

import (
	"github.com/shopspring/decimal"
)

const EtherDecimals = 18

// ToDecimal converts the integer to a shopspring decimal without loss.
func (a Uint256) ToDecimal() decimal.Decimal {
	return decimal.NewFromBigInt(a.ToBig(), 0)
}

// FormatUnits renders a raw amount with the given number of decimals,
// e.g. FormatUnits(1500000000000000000, 18) == "1.5".
func FormatUnits(a Uint256, decimals int32) string {
	return decimal.NewFromBigInt(a.ToBig(), -decimals).String()
}

func FormatEther(a Uint256) string {
	return FormatUnits(a, EtherDecimals)
}

// RatioString renders tokenReserve / ethReserve with the given precision.
// Returns "0" when the eth reserve is empty.
func RatioString(tokenReserve, ethReserve Uint256, places int32) string {
	if ethReserve.IsZero() {
		return "0"
	}
	return tokenReserve.ToDecimal().DivRound(ethReserve.ToDecimal(), places).String()
}
