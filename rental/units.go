package rental

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// =============================================================================
// UNIT CONVERSION - Whole-token strings <-> smallest units
// =============================================================================
// The engine computes exclusively in smallest units. Humans and the API talk
// in whole tokens ("0.5"), so the boundary converts with exact decimal
// arithmetic; float64 never touches money.

// DefaultDecimals is the token precision used when none is configured.
const DefaultDecimals int32 = 8

// ParseUnits converts a whole-token decimal string to smallest units.
// "0.5" at 8 decimals is 50_000_000. Fails on negative values, on more
// fractional digits than the token carries, and on values past uint64.
func ParseUnits(s string, decimals int32) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &ValidationError{Field: "amount", Reason: "not a decimal number"}
	}
	if d.IsNegative() {
		return 0, &ValidationError{Field: "amount", Reason: "negative"}
	}
	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return 0, &ValidationError{Field: "amount", Reason: "more precision than the token carries"}
	}
	bi := scaled.BigInt()
	if bi.BitLen() > 64 {
		return 0, ErrArithmeticOverflow
	}
	return bi.Uint64(), nil
}

// FormatUnits renders smallest units as a whole-token decimal string.
func FormatUnits(units uint64, decimals int32) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -decimals).String()
}
