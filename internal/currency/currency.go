package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// DecimalPlaces is the precision of the platform currency.
	DecimalPlaces = 2

	// AtomicPerUnit is the number of atomic units in one display unit.
	AtomicPerUnit = 100

	// Code is the display suffix for formatted amounts.
	Code = "PTS"
)

// ToAtomic converts a decimal unit value to atomic units.
// Values with more than DecimalPlaces fractional digits are rejected
// rather than rounded.
func ToAtomic(d decimal.Decimal) (int64, error) {
	scaled := d.Shift(DecimalPlaces)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", d.String(), DecimalPlaces)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s is out of range", d.String())
	}
	return scaled.IntPart(), nil
}

// FromAtomic converts atomic units back to a decimal unit value.
func FromAtomic(a int64) decimal.Decimal {
	return decimal.New(a, -DecimalPlaces)
}

// Format renders atomic units as a fixed two-decimal string, e.g. "300.00".
func Format(a int64) string {
	return FromAtomic(a).StringFixed(DecimalPlaces)
}

// FormatWithUnit renders atomic units with the currency code, e.g. "300.00 PTS".
func FormatWithUnit(a int64) string {
	return Format(a) + " " + Code
}

// ValidateBounds checks that an atomic amount falls inside [min, max].
func ValidateBounds(a, min, max int64) error {
	if a < min {
		return fmt.Errorf("amount %s is below the minimum of %s", Format(a), Format(min))
	}
	if a > max {
		return fmt.Errorf("amount %s exceeds the maximum of %s", Format(a), Format(max))
	}
	return nil
}

// Parse reads a non-negative amount in display units, with or without the
// currency code suffix, and returns atomic units.
func Parse(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimSuffix(trimmed, Code)
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return 0, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q must not be negative", s)
	}

	return ToAtomic(d)
}
