package enums

import (
	"fmt"
	"strings"
)

// Currency denominates amounts in the settlement core. The native currency is
// always accepted; every other currency must be allow-listed by the fee
// administrator before it can carry payments.
type Currency string

// CurrencyNative is the host environment's own denomination.
const CurrencyNative Currency = "NATIVE"

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsNative reports whether the currency is the native denomination.
func (c Currency) IsNative() bool {
	return c == CurrencyNative
}

// IsValid reports whether the code is well formed (2-10 uppercase letters).
// Allow-listing is a separate, administrator-controlled concern.
func (c Currency) IsValid() bool {
	if len(c) < 2 || len(c) > 10 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// ParseCurrency normalizes raw input into a Currency.
func ParseCurrency(value string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(value)))
	if !c.IsValid() {
		return "", fmt.Errorf("invalid currency %q", value)
	}
	return c, nil
}
