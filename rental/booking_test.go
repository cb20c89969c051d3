/*
booking_test.go - Booking/escrow state machine tests

These tests follow the money: every scenario asserts both the booking rows
AND the token balances, because the financially consequential invariants
live in their combination. Conservation (balances + escrow = supply) is
checked after every sequence.
*/
package rental_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dev-Oud/RentalDapp/rental"
	"github.com/Dev-Oud/RentalDapp/token"
)

func assertConservation(t *testing.T, ledger *token.Ledger, accounts ...rental.Identity) {
	t.Helper()
	var sum uint64
	for _, a := range accounts {
		sum += ledger.BalanceOf(a)
	}
	sum += ledger.Escrow()
	assert.Equal(t, ledger.TotalSupply(), sum, "token conservation violated")
}

// =============================================================================
// BOOKING
// =============================================================================

func TestBookApartment_EscrowsRentPlusDeposit(t *testing.T) {
	// GIVEN: 100/night listing, 5 percent fee, a guest with 1000
	// WHEN: Booking 3 nights
	// THEN: 315 moves into escrow (300 rent + 15 deposit), 3 rows exist
	e, ledger := newTestEngine(t)
	ctx := context.Background()
	id := createListing(t, e)
	fund(t, ledger, guest, 1000)

	bs, err := e.BookApartment(ctx, guest, id, []rental.Night{night(1), night(2), night(3)})
	require.NoError(t, err)
	require.Len(t, bs, 3)

	assert.Equal(t, uint64(685), ledger.BalanceOf(guest))
	assert.Equal(t, uint64(315), ledger.Escrow())

	for i, b := range bs {
		assert.Equal(t, rental.BookingID(i+1), b.ID)
		assert.Equal(t, uint64(100), b.Price)
		assert.Equal(t, uint64(5), b.Deposit)
		assert.Equal(t, rental.StateReserved, b.State())
	}
	assertConservation(t, ledger, guest, host)
}

func TestBookApartment_DepositSharesCoverRemainder(t *testing.T) {
	// 33/night for 3 nights at 5 percent: total 99, deposit 4. The shares
	// must sum to 4 exactly even though 4 does not divide by 3.
	e, ledger := newTestEngine(t)
	ctx := context.Background()

	p := listing()
	p.Price = 33
	id, err := e.CreateApartment(ctx, host, p)
	require.NoError(t, err)
	fund(t, ledger, guest, 1000)

	bs, err := e.BookApartment(ctx, guest, id, []rental.Night{night(1), night(2), night(3)})
	require.NoError(t, err)

	var depositSum uint64
	for _, b := range bs {
		depositSum += b.Deposit
	}
	assert.Equal(t, uint64(4), depositSum)
	assert.Equal(t, uint64(103), ledger.Escrow())
}

func TestBookApartment_DeletedListingIsGone(t *testing.T) {
	e, ledger := newTestEngine(t)
	ctx := context.Background()
	id := createListing(t, e)
	fund(t, ledger, guest, 1000)

	require.NoError(t, e.DeleteApartment(ctx, host, id))

	_, err := e.BookApartment(ctx, guest, id, []rental.Night{night(1)})
	assert.ErrorIs(t, err, rental.ErrGone)
	assert.Equal(t, uint64(1000), ledger.BalanceOf(guest), "no funds may move for a rejected booking")
}

func TestBookApartment_UnknownListing(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.BookApartment(context.Background(), guest, 99, []rental.Night{night(1)})
	assert.ErrorIs(t, err, rental.ErrNotFound)
}

func TestBookApartment_ConflictRejectsWholeRequest(t *testing.T) {
	// GIVEN: Night 2 already reserved by another guest
	// WHEN: Booking nights 1-3
	// THEN: DateUnavailable, no rows added, no funds moved
	e, ledger := newTestEngine(t)
	ctx := context.Background()
	id := createListing(t, e)

	other := rental.Identity("0xOther")
	fund(t, ledger, other, 1000)
	fund(t, ledger, guest, 1000)

	_, err := e.BookApartment(ctx, other, id, []rental.Night{night(2)})
	require.NoError(t, err)

	_, err = e.BookApartment(ctx, guest, id, []rental.Night{night(1), night(2), night(3)})
	assert.ErrorIs(t, err, rental.ErrDateUnavailable)

	var conflict *rental.DateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, night(2), conflict.Night)
	assert.Equal(t, rental.BookingID(1), conflict.ExistingID)

	assert.Equal(t, uint64(1000), ledger.BalanceOf(guest), "losing call must not pay")
	bs, err := e.Bookings(ctx, id)
	require.NoError(t, err)
	assert.Len(t, bs, 1, "no partial booking")
}

func TestBookApartment_DuplicateNightInRequest(t *testing.T) {
	e, ledger := newTestEngine(t)
	id := createListing(t, e)
	fund(t, ledger, guest, 1000)

	_, err := e.BookApartment(context.Background(), guest, id, []rental.Night{night(1), night(1)})
	assert.ErrorIs(t, err, rental.ErrDateUnavailable)
}

func TestBookApartment_InsufficientFunds(t *testing.T) {
	// Guest holds 100; 1 night needs 105. Nothing may change.
	e, ledger := newTestEngine(t)
	ctx := context.Background()
	id := createListing(t, e)
	fund(t, ledger, guest, 100)

	_, err := e.BookApartment(ctx, guest, id, []rental.Night{night(1)})
	assert.ErrorIs(t, err, rental.ErrInsufficientFunds)

	var short *rental.InsufficientFundsError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, uint64(100), short.Available)
	assert.Equal(t, uint64(105), short.Required)

	bs, err := e.Bookings(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, bs, "no booking rows after a failed transfer")
	assert.Equal(t, uint64(0), ledger.Escrow())
}

func TestBookApartment_WithoutApproval(t *testing.T) {
	e, ledger := newTestEngine(t)
	id := createListing(t, e)
	require.NoError(t, ledger.Mint(guest, 1000)) // minted but never approved

	_, err := e.BookApartment(context.Background(), guest, id, []rental.Night{night(1)})
	assert.ErrorIs(t, err, rental.ErrTransferRejected)
	assert.Equal(t, uint64(1000), ledger.BalanceOf(guest))
}

// =============================================================================
// CHECK-IN
// =============================================================================

func TestCheckIn_ReleasesRentToHostAndDepositToTenant(t *testing.T) {
	// Policy under test: on check-in the night's rent goes to the host and
	// the night's deposit share returns to the tenant.
	e, ledger := newTestEngine(t)
	ctx := context.Background()
	id := createListing(t, e)
	fund(t, ledger, guest, 1000)

	bs, err := e.BookApartment(ctx, guest, id, []rental.Night{night(1)})
	require.NoError(t, err)
	require.Equal(t, uint64(895), ledger.BalanceOf(guest)) // 1000 - 105

	require.NoError(t, e.CheckInApartment(ctx, guest, id, bs[0].ID))

	assert.Equal(t, uint64(100), ledger.BalanceOf(host), "host receives exactly the rent")
	assert.Equal(t, uint64(900), ledger.BalanceOf(guest), "deposit share returns to tenant")
	assert.Equal(t, uint64(0), ledger.Escrow())

	got, err := e.Bookings(ctx, id)
	require.NoError(t, err)
	assert.True(t, got[0].Checked)
	assert.Equal(t, rental.StateCheckedIn, got[0].State())
	assertConservation(t, ledger, guest, host)
}

func TestCheckIn_OnlyTenant(t *testing.T) {
	e, ledger := newTestEngine(t)
	ctx := context.Background()
	id := createListing(t, e)
	fund(t, ledger, guest, 1000)

	bs, err := e.BookApartment(ctx, guest, id, []rental.Night{night(1)})
	require.NoError(t, err)

	// The host cannot check a guest in; neither can a stranger.
	assert.ErrorIs(t, e.CheckInApartment(ctx, host, id, bs[0].ID), rental.ErrUnauthorized)
	assert.ErrorIs(t, e.CheckInApartment(ctx, "0xStranger", id, bs[0].ID), rental.ErrUnauthorized)
}

func TestCheckIn_TerminalStatesAreImmutable(t *testing.T) {
	e, ledger := newTestEngine(t)
	ctx := context.Background()
	id := createListing(t, e)
	fund(t, ledger, guest, 1000)

	bs, err := e.BookApartment(ctx, guest, id, []rental.Night{night(1), night(2)})
	require.NoError(t, err)

	require.NoError(t, e.CheckInApartment(ctx, guest, id, bs[0].ID))
	assert.ErrorIs(t, e.CheckInApartment(ctx, guest, id, bs[0].ID), rental.ErrAlreadyFinalized)
	assert.ErrorIs(t, e.RefundBooking(ctx, guest, id, bs[0].ID), rental.ErrAlreadyFinalized)

	require.NoError(t, e.RefundBooking(ctx, guest, id, bs[1].ID))
	assert.ErrorIs(t, e.RefundBooking(ctx, guest, id, bs[1].ID), rental.ErrAlreadyFinalized)
	assert.ErrorIs(t, e.CheckInApartment(ctx, guest, id, bs[1].ID), rental.ErrAlreadyFinalized)
}

func TestCheckIn_UnknownBooking(t *testing.T) {
	e, _ := newTestEngine(t)
	id := createListing(t, e)
	assert.ErrorIs(t, e.CheckInApartment(context.Background(), guest, id, 9), rental.ErrNotFound)
}

func TestCheckIn_BookingOfOtherApartment(t *testing.T) {
	// A booking id resolves only together with its apartment id.
	e, ledger := newTestEngine(t)
	ctx := context.Background()
	first := createListing(t, e)
	second := createListing(t, e)
	fund(t, ledger, guest, 1000)

	bs, err := e.BookApartment(ctx, guest, first, []rental.Night{night(1)})
	require.NoError(t, err)

	assert.ErrorIs(t, e.CheckInApartment(ctx, guest, second, bs[0].ID), rental.ErrNotFound)
}

// =============================================================================
// REFUND
// =============================================================================

func TestRefund_RestoresTenantBalance(t *testing.T) {
	// Round-trip property: book then refund every night returns the
	// tenant to the pre-booking balance to the unit.
	e, ledger := newTestEngine(t)
	ctx := context.Background()

	p := listing()
	p.Price = 33 // odd price so deposit shares carry a remainder
	id, err := e.CreateApartment(ctx, host, p)
	require.NoError(t, err)
	fund(t, ledger, guest, 1000)

	bs, err := e.BookApartment(ctx, guest, id, []rental.Night{night(1), night(2), night(3)})
	require.NoError(t, err)

	for _, b := range bs {
		require.NoError(t, e.RefundBooking(ctx, guest, id, b.ID))
	}

	assert.Equal(t, uint64(1000), ledger.BalanceOf(guest), "full escrow must be restored")
	assert.Equal(t, uint64(0), ledger.Escrow())
	assert.Equal(t, uint64(0), ledger.BalanceOf(host))
	assertConservation(t, ledger, guest, host)
}

func TestRefund_OnlyTenant(t *testing.T) {
	e, ledger := newTestEngine(t)
	ctx := context.Background()
	id := createListing(t, e)
	fund(t, ledger, guest, 1000)

	bs, err := e.BookApartment(ctx, guest, id, []rental.Night{night(1)})
	require.NoError(t, err)

	assert.ErrorIs(t, e.RefundBooking(ctx, host, id, bs[0].ID), rental.ErrUnauthorized)
	assert.ErrorIs(t, e.RefundBooking(ctx, admin, id, bs[0].ID), rental.ErrUnauthorized)
}

func TestRefund_FreesTheNightForRebooking(t *testing.T) {
	// Available is reachable again after Refunded, through a fresh row;
	// the refunded row stays in history.
	e, ledger := newTestEngine(t)
	ctx := context.Background()
	id := createListing(t, e)

	other := rental.Identity("0xOther")
	fund(t, ledger, guest, 1000)
	fund(t, ledger, other, 1000)

	bs, err := e.BookApartment(ctx, guest, id, []rental.Night{night(1)})
	require.NoError(t, err)
	require.NoError(t, e.RefundBooking(ctx, guest, id, bs[0].ID))

	fresh, err := e.BookApartment(ctx, other, id, []rental.Night{night(1)})
	require.NoError(t, err, "refunded night must be bookable again")
	assert.Equal(t, rental.BookingID(2), fresh[0].ID)

	all, err := e.Bookings(ctx, id)
	require.NoError(t, err)
	assert.Len(t, all, 2, "history is retained, not overwritten")
}

// =============================================================================
// UNAVAILABLE DATES
// =============================================================================

func TestUnavailableDates_ExcludesCancelled(t *testing.T) {
	e, ledger := newTestEngine(t)
	ctx := context.Background()
	id := createListing(t, e)
	fund(t, ledger, guest, 1000)

	bs, err := e.BookApartment(ctx, guest, id, []rental.Night{night(3), night(1), night(2)})
	require.NoError(t, err)
	require.NoError(t, e.RefundBooking(ctx, guest, id, bs[1].ID)) // night 2

	nights, err := e.UnavailableDates(ctx, id)
	require.NoError(t, err)
	require.Len(t, nights, 2)
	assert.Equal(t, night(1), nights[0])
	assert.Equal(t, night(3), nights[1])
}

// =============================================================================
// CONCURRENCY - The double-booking race
// =============================================================================

func TestBookApartment_ConcurrentSameNight(t *testing.T) {
	// Two concurrent bookings for overlapping night sets: exactly one
	// succeeds, the loser pays nothing. Run many rounds to give the race
	// a chance to bite.
	for round := 0; round < 25; round++ {
		e, ledger := newTestEngine(t)
		ctx := context.Background()
		id := createListing(t, e)

		a := rental.Identity("0xRacerA")
		b := rental.Identity("0xRacerB")
		fund(t, ledger, a, 1000)
		fund(t, ledger, b, 1000)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		contested := night(10)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = e.BookApartment(ctx, a, id, []rental.Night{contested, night(11)})
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = e.BookApartment(ctx, b, id, []rental.Night{night(12), contested})
		}()
		wg.Wait()

		var won, lost int
		for _, err := range errs {
			if err == nil {
				won++
			} else {
				require.ErrorIs(t, err, rental.ErrDateUnavailable)
				lost++
			}
		}
		require.Equal(t, 1, won, "exactly one booking must win")
		require.Equal(t, 1, lost)

		// Exactly one non-cancelled row covers the contested night.
		all, err := e.Bookings(ctx, id)
		require.NoError(t, err)
		active := 0
		for _, bk := range all {
			if !bk.Cancelled && bk.Night.Equal(contested) {
				active++
			}
		}
		require.Equal(t, 1, active)

		// The loser paid nothing: one account is down 210, the other whole.
		balances := []uint64{ledger.BalanceOf(a), ledger.BalanceOf(b)}
		assert.ElementsMatch(t, []uint64{790, 1000}, balances)
		assertConservation(t, ledger, a, b, host)
	}
}
