// Package money converts between the core's integer smallest-unit amounts and
// human-facing decimal representations. All settlement arithmetic stays in
// int64 smallest units; decimals exist only at the API boundary.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxExponent bounds how many fractional digits a currency may declare.
const MaxExponent = 18

// Display renders an amount of smallest units as a decimal with the given
// currency exponent (e.g. 1003 units at exponent 2 -> "10.03").
func Display(units int64, exponent int32) decimal.Decimal {
	return decimal.New(units, -exponent)
}

// DisplayString renders the amount with the exponent's full precision.
func DisplayString(units int64, exponent int32) string {
	return Display(units, exponent).StringFixed(exponent)
}

// ToUnits converts a decimal amount into smallest units. It rejects values
// with more fractional digits than the currency exponent allows; settlement
// never rounds caller-supplied amounts.
func ToUnits(amount decimal.Decimal, exponent int32) (int64, error) {
	if exponent < 0 || exponent > MaxExponent {
		return 0, fmt.Errorf("currency exponent %d out of range", exponent)
	}
	scaled := amount.Shift(exponent)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d fractional digits", amount, exponent)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s overflows smallest units", amount)
	}
	return scaled.BigInt().Int64(), nil
}
