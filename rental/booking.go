/*
booking.go - The booking/escrow state machine

PURPOSE:
  Reserving nights, collecting escrow, checking in, and refunding. This is
  the most intricate component: it coordinates the Store, the fee
  calculator, and the external token capability, and it is where the
  marketplace's financial invariants are enforced.

STATE MACHINE (per apartment night):
  Available -> Reserved -> CheckedIn (terminal)
                        -> Refunded  (terminal, night bookable again via a
                                      fresh row)

BOOKING SEQUENCE (all-or-nothing):
  1. Fetch the apartment; reject if missing or deleted.
  2. Reject if ANY requested night conflicts with a non-cancelled booking.
  3. Compute rent, deposit, and the required escrow amount.
  4. Pull the escrow from the tenant via the token capability. A failed
     pull leaves the store untouched.
  5. Only after the pull succeeds, insert one booking row per night in one
     atomic batch.
  Steps 2-5 run inside the per-apartment critical section, so a concurrent
  booking for an overlapping night set cannot interleave between the
  availability check and the insert.

MONEY MOVEMENT POLICY (decided, tested):
  - Check-in: tenant only. Rent for that night goes to the host; the
    night's deposit share returns to the tenant.
  - Refund: tenant only. The full escrow for that night (rent + deposit
    share) returns to the tenant. Host-initiated cancellation does not
    exist.
  The capability is never invoked twice for one logical operation; the one
  exception is the compensating return issued if the row insert fails after
  a successful pull, which undoes the pull rather than retrying it.

SEE ALSO:
  - fees.go: Rent/deposit arithmetic and the deposit-share split
  - engine.go: The per-apartment critical section
*/
package rental

import (
	"context"
	"fmt"
	"sort"
)

// BookApartment reserves the given nights for the tenant, moving
// rent + deposit into escrow. Returns the created booking rows, one per
// night, ordered by night. The whole request is rejected if any single
// night conflicts; no partial booking exists.
func (e *Engine) BookApartment(ctx context.Context, tenant Identity, aid ApartmentID, nights []Night) ([]Booking, error) {
	if tenant == "" {
		return nil, &ValidationError{Field: "tenant", Reason: "empty"}
	}
	if len(nights) == 0 {
		return nil, &ValidationError{Field: "dates", Reason: "empty"}
	}

	unlock := e.lockApartment(aid)
	defer unlock()

	apt, err := e.store.GetApartment(ctx, aid)
	if err != nil {
		return nil, err
	}
	if apt.Deleted {
		return nil, ErrGone
	}

	// Normalize the request: sorted, and duplicate nights within the batch
	// are conflicts too.
	requested := append([]Night(nil), nights...)
	sort.Slice(requested, func(i, j int) bool { return requested[i].Before(requested[j]) })
	for i := 1; i < len(requested); i++ {
		if requested[i].Equal(requested[i-1]) {
			return nil, &DateConflictError{ApartmentID: aid, Night: requested[i]}
		}
	}

	existing, err := e.store.BookingsForApartment(ctx, aid)
	if err != nil {
		return nil, err
	}
	taken := make(map[Night]BookingID, len(existing))
	for _, b := range existing {
		if !b.Cancelled {
			taken[b.Night] = b.ID
		}
	}
	for _, n := range requested {
		if prior, ok := taken[n]; ok {
			return nil, &DateConflictError{ApartmentID: aid, Night: n, ExistingID: prior}
		}
	}

	fee, err := e.store.SecurityFee(ctx)
	if err != nil {
		return nil, err
	}
	total, err := ComputeRent(apt.Price, len(requested))
	if err != nil {
		return nil, err
	}
	deposit, err := ComputeDeposit(total, fee)
	if err != nil {
		return nil, err
	}
	required, err := ComputeRequired(total, deposit)
	if err != nil {
		return nil, err
	}

	// No store mutation happens before this succeeds.
	if err := e.token.TransferFrom(ctx, tenant, required); err != nil {
		return nil, err
	}

	shares := SplitDeposit(deposit, len(requested))
	rows := make([]Booking, len(requested))
	now := e.now()
	for i, n := range requested {
		rows[i] = Booking{
			ApartmentID: aid,
			Tenant:      tenant,
			Night:       n,
			Price:       apt.Price,
			Deposit:     shares[i],
			CreatedAt:   now,
		}
	}

	stored, err := e.store.InsertBookings(ctx, rows)
	if err != nil {
		// The escrow was already pulled; undo it rather than leave funds
		// stranded. This is a compensation, not a retry.
		if rerr := e.token.TransferTo(ctx, tenant, required); rerr != nil {
			return nil, fmt.Errorf("booking insert failed (%v) and escrow return failed: %w", err, rerr)
		}
		return nil, err
	}
	return stored, nil
}

// CheckInApartment marks a reserved night as checked-in. Only the tenant who
// paid may check in. The night's rent is released from escrow to the host
// and the night's deposit share returns to the tenant.
func (e *Engine) CheckInApartment(ctx context.Context, caller Identity, aid ApartmentID, bid BookingID) error {
	unlock := e.lockApartment(aid)
	defer unlock()

	b, err := e.store.GetBooking(ctx, aid, bid)
	if err != nil {
		return err
	}
	if caller != b.Tenant {
		return ErrUnauthorized
	}
	if b.Finalized() {
		return ErrAlreadyFinalized
	}

	apt, err := e.store.GetApartment(ctx, aid)
	if err != nil {
		return err
	}

	if err := e.token.TransferTo(ctx, apt.Owner, b.Price); err != nil {
		return err
	}
	if b.Deposit > 0 {
		if err := e.token.TransferTo(ctx, b.Tenant, b.Deposit); err != nil {
			return err
		}
	}

	b.Checked = true
	return e.store.UpdateBooking(ctx, b)
}

// RefundBooking cancels a reserved night and returns its full escrow
// (rent + deposit share) to the tenant. Only the tenant who paid may ask
// for their own refund. The night becomes bookable again through a fresh
// booking row.
func (e *Engine) RefundBooking(ctx context.Context, caller Identity, aid ApartmentID, bid BookingID) error {
	unlock := e.lockApartment(aid)
	defer unlock()

	b, err := e.store.GetBooking(ctx, aid, bid)
	if err != nil {
		return err
	}
	if caller != b.Tenant {
		return ErrUnauthorized
	}
	if b.Finalized() {
		return ErrAlreadyFinalized
	}

	if err := e.token.TransferTo(ctx, b.Tenant, b.Escrowed()); err != nil {
		return err
	}

	b.Cancelled = true
	return e.store.UpdateBooking(ctx, b)
}

// Bookings returns all booking rows for an apartment, terminal ones
// included.
func (e *Engine) Bookings(ctx context.Context, aid ApartmentID) ([]Booking, error) {
	if _, err := e.store.GetApartment(ctx, aid); err != nil {
		return nil, err
	}
	return e.store.BookingsForApartment(ctx, aid)
}

// UnavailableDates returns the nights currently covered by a non-cancelled
// booking, sorted ascending.
func (e *Engine) UnavailableDates(ctx context.Context, aid ApartmentID) ([]Night, error) {
	if _, err := e.store.GetApartment(ctx, aid); err != nil {
		return nil, err
	}
	bs, err := e.store.BookingsForApartment(ctx, aid)
	if err != nil {
		return nil, err
	}
	var out []Night
	for _, b := range bs {
		if !b.Cancelled {
			out = append(out, b.Night)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}
