/*
fees.go - Rent and security-deposit arithmetic

PURPOSE:
  Pure functions deriving the amounts a booking moves into escrow. All money
  is an integer count of the token's smallest unit; every operation is checked
  uint64 arithmetic that fails with ErrArithmeticOverflow instead of wrapping.

THE TRUNCATION RULE:
  ComputeDeposit is floor(total * feePercent / 100). Integer division
  truncates toward zero by fixed-point convention. The truncation is a
  protocol-visible rule: it must never be "corrected" to rounding, or
  escrow totals drift from what every other party computes.

DEPOSIT SHARES:
  A batch deposit is split across the batch's nights so the per-night shares
  sum EXACTLY to the batch deposit (earliest nights absorb the remainder).
  Refunding every night of a batch therefore restores the tenant's balance
  to the unit, with no dust lost to per-night truncation.

SEE ALSO:
  - booking.go: The only caller of these functions
*/
package rental

import "math/bits"

// DefaultSecurityFee is the security-deposit percentage a fresh store starts
// with until an administrator changes it.
const DefaultSecurityFee uint64 = 5

// MaxSecurityFee bounds the configurable rate; deposits never exceed rent.
const MaxSecurityFee uint64 = 100

// ComputeRent returns pricePerNight * nightCount.
func ComputeRent(pricePerNight uint64, nightCount int) (uint64, error) {
	if nightCount < 0 {
		return 0, &ValidationError{Field: "nights", Reason: "negative count"}
	}
	hi, total := bits.Mul64(pricePerNight, uint64(nightCount))
	if hi != 0 {
		return 0, ErrArithmeticOverflow
	}
	return total, nil
}

// ComputeDeposit returns floor(total * feePercent / 100). The intermediate
// product is computed in 128 bits so a valid result near the top of the
// uint64 range is not rejected spuriously.
func ComputeDeposit(total, feePercent uint64) (uint64, error) {
	hi, lo := bits.Mul64(total, feePercent)
	if hi >= 100 {
		return 0, ErrArithmeticOverflow
	}
	deposit, _ := bits.Div64(hi, lo, 100)
	return deposit, nil
}

// ComputeRequired returns total + deposit, the amount escrowed for a booking.
func ComputeRequired(total, deposit uint64) (uint64, error) {
	required, carry := bits.Add64(total, deposit, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return required, nil
}

// SplitDeposit distributes a batch deposit over nightCount nights. Shares
// differ by at most one unit and sum exactly to deposit; the first
// deposit%nightCount shares carry the extra unit.
func SplitDeposit(deposit uint64, nightCount int) []uint64 {
	if nightCount <= 0 {
		return nil
	}
	n := uint64(nightCount)
	base := deposit / n
	extra := deposit % n
	shares := make([]uint64, nightCount)
	for i := range shares {
		shares[i] = base
		if uint64(i) < extra {
			shares[i]++
		}
	}
	return shares
}
