/*
sqlite_test.go - Persistence tests against an in-memory database

Tests for:
- Apartment CRUD round-trips (including image lists and large prices)
- Per-apartment sequential booking ids
- The partial unique index on active nights (double-booking backstop)
- Review uniqueness per reviewer
- Security fee persistence
- A full booking flow driven through the engine on this store
*/
package sqlite

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/Dev-Oud/RentalDapp/rental"
	"github.com/Dev-Oud/RentalDapp/token"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testApartment(owner rental.Identity) rental.Apartment {
	return rental.Apartment{
		Owner:       owner,
		Name:        "Canal View Loft",
		Description: "Two rooms over the canal",
		Location:    "Amsterdam",
		Images:      []string{"https://img.example/1.jpg", "https://img.example/2.jpg"},
		Rooms:       2,
		Price:       150,
		CreatedAt:   time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestApartment_RoundTrip(t *testing.T) {
	// GIVEN: A stored apartment
	st := newTestStore(t)
	ctx := context.Background()

	in := testApartment("0xHost")
	id, err := st.InsertApartment(ctx, in)
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if id != 1 {
		t.Errorf("first id = %d, want 1", id)
	}

	// WHEN: Reading it back
	got, err := st.GetApartment(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}

	// THEN: Every field survives the round-trip
	if got.Owner != in.Owner || got.Name != in.Name || got.Location != in.Location {
		t.Errorf("fields lost: %+v", got)
	}
	if len(got.Images) != 2 || got.Images[1] != in.Images[1] {
		t.Errorf("images = %v", got.Images)
	}
	if got.Rooms != 2 || got.Price != 150 || got.Deleted {
		t.Errorf("got %+v", got)
	}
	if !got.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, in.CreatedAt)
	}
}

func TestApartment_PriceBeyondSignedRange(t *testing.T) {
	// Prices are stored as decimal text because a uint64 does not fit a
	// signed SQLite integer. The max value must survive unchanged.
	st := newTestStore(t)
	ctx := context.Background()

	in := testApartment("0xHost")
	in.Price = math.MaxUint64
	id, err := st.InsertApartment(ctx, in)
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	got, err := st.GetApartment(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if got.Price != math.MaxUint64 {
		t.Errorf("price = %d, want MaxUint64", got.Price)
	}
}

func TestApartment_GetUnknown(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetApartment(context.Background(), 99)
	if !rental.IsNotFound(err) {
		t.Errorf("got %v, want not-found", err)
	}
}

func TestApartment_UpdatePersists(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.InsertApartment(ctx, testApartment("0xHost"))
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	a, _ := st.GetApartment(ctx, id)
	a.Name = "Renamed"
	a.Deleted = true
	if err := st.UpdateApartment(ctx, a); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}

	got, _ := st.GetApartment(ctx, id)
	if got.Name != "Renamed" || !got.Deleted {
		t.Errorf("update not persisted: %+v", got)
	}

	// Updating a row that does not exist reports not-found.
	a.ID = 500
	if err := st.UpdateApartment(ctx, a); !rental.IsNotFound(err) {
		t.Errorf("got %v, want not-found", err)
	}
}

// =============================================================================
// BOOKINGS
// =============================================================================

func TestBookings_SequentialIDsPerApartment(t *testing.T) {
	// GIVEN: Two apartments
	st := newTestStore(t)
	ctx := context.Background()
	a1, _ := st.InsertApartment(ctx, testApartment("0xHost"))
	a2, _ := st.InsertApartment(ctx, testApartment("0xHost"))

	mk := func(aid rental.ApartmentID, day int) rental.Booking {
		return rental.Booking{
			ApartmentID: aid,
			Tenant:      "0xGuest",
			Night:       rental.NewNight(2026, 9, day),
			Price:       150,
			Deposit:     7,
			CreatedAt:   time.Now().UTC(),
		}
	}

	// WHEN: Inserting a batch spanning both apartments, then a second batch
	first, err := st.InsertBookings(ctx, []rental.Booking{mk(a1, 1), mk(a1, 2), mk(a2, 1)})
	if err != nil {
		t.Fatalf("Failed to insert batch: %v", err)
	}
	second, err := st.InsertBookings(ctx, []rental.Booking{mk(a1, 3)})
	if err != nil {
		t.Fatalf("Failed to insert second batch: %v", err)
	}

	// THEN: Ids count up per apartment, continuing across batches
	if first[0].ID != 1 || first[1].ID != 2 || first[2].ID != 1 {
		t.Errorf("batch ids = %d,%d,%d", first[0].ID, first[1].ID, first[2].ID)
	}
	if second[0].ID != 3 {
		t.Errorf("continued id = %d, want 3", second[0].ID)
	}
}

func TestBookings_ActiveNightIndexRejectsDuplicates(t *testing.T) {
	// The partial unique index is the last line of defense against a
	// double-booked night reaching disk.
	st := newTestStore(t)
	ctx := context.Background()
	aid, _ := st.InsertApartment(ctx, testApartment("0xHost"))

	night := rental.NewNight(2026, 9, 5)
	b := rental.Booking{
		ApartmentID: aid, Tenant: "0xGuest", Night: night,
		Price: 150, Deposit: 7, CreatedAt: time.Now().UTC(),
	}
	stored, err := st.InsertBookings(ctx, []rental.Booking{b})
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	// Same active night again: the index must reject the row.
	if _, err := st.InsertBookings(ctx, []rental.Booking{b}); err == nil {
		t.Fatal("duplicate active night was accepted")
	}

	// After cancellation the night is free again.
	cancelled := stored[0]
	cancelled.Cancelled = true
	if err := st.UpdateBooking(ctx, cancelled); err != nil {
		t.Fatalf("Failed to cancel: %v", err)
	}
	if _, err := st.InsertBookings(ctx, []rental.Booking{b}); err != nil {
		t.Fatalf("rebooking a cancelled night failed: %v", err)
	}

	bs, _ := st.BookingsForApartment(ctx, aid)
	if len(bs) != 2 {
		t.Errorf("history rows = %d, want 2", len(bs))
	}
}

func TestBookings_UpdateUnknown(t *testing.T) {
	st := newTestStore(t)
	err := st.UpdateBooking(context.Background(), rental.Booking{ApartmentID: 1, ID: 1})
	if !rental.IsNotFound(err) {
		t.Errorf("got %v, want not-found", err)
	}
}

// =============================================================================
// REVIEWS AND CONFIG
// =============================================================================

func TestReviews_OnePerReviewer(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	aid, _ := st.InsertApartment(ctx, testApartment("0xHost"))

	r := rental.Review{
		ApartmentID: aid,
		Reviewer:    "0xGuest",
		Text:        "Great stay",
		CreatedAt:   time.Now().UTC(),
	}
	id, err := st.InsertReview(ctx, r)
	if err != nil {
		t.Fatalf("Failed to insert review: %v", err)
	}
	if id == 0 {
		t.Error("review id = 0")
	}

	// Second review from the same identity violates the unique index.
	if _, err := st.InsertReview(ctx, r); err == nil {
		t.Error("duplicate reviewer was accepted")
	}

	// A different reviewer is fine.
	r.Reviewer = "0xOther"
	if _, err := st.InsertReview(ctx, r); err != nil {
		t.Fatalf("second reviewer rejected: %v", err)
	}

	rs, err := st.ReviewsForApartment(ctx, aid)
	if err != nil {
		t.Fatalf("Failed to list reviews: %v", err)
	}
	if len(rs) != 2 {
		t.Errorf("reviews = %d, want 2", len(rs))
	}
	if rs[0].Text != "Great stay" {
		t.Errorf("text = %q", rs[0].Text)
	}
}

func TestSecurityFee_DefaultAndPersist(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	fee, err := st.SecurityFee(ctx)
	if err != nil {
		t.Fatalf("Failed to read fee: %v", err)
	}
	if fee != rental.DefaultSecurityFee {
		t.Errorf("default fee = %d, want %d", fee, rental.DefaultSecurityFee)
	}

	if err := st.SetSecurityFee(ctx, 12); err != nil {
		t.Fatalf("Failed to set fee: %v", err)
	}
	fee, _ = st.SecurityFee(ctx)
	if fee != 12 {
		t.Errorf("fee = %d, want 12", fee)
	}
}

// =============================================================================
// ENGINE ON SQLITE
// =============================================================================

func TestEngine_FullFlowOnSQLite(t *testing.T) {
	// GIVEN: The engine wired to this store instead of the in-memory one
	st := newTestStore(t)
	ctx := context.Background()

	ledger := token.NewLedger()
	eng := rental.New(st, ledger, "0xAdmin")

	aid, err := eng.CreateApartment(ctx, "0xHost", rental.ApartmentParams{
		Name: "Loft", Description: "d", Location: "l", Rooms: 1, Price: 100,
	})
	if err != nil {
		t.Fatalf("Failed to create apartment: %v", err)
	}

	if err := ledger.Mint("0xGuest", 1000); err != nil {
		t.Fatal(err)
	}
	ledger.Approve("0xGuest", 1000)

	// WHEN: Booking two nights, checking in one, refunding the other
	nights := []rental.Night{rental.NewNight(2026, 9, 1), rental.NewNight(2026, 9, 2)}
	bs, err := eng.BookApartment(ctx, "0xGuest", aid, nights)
	if err != nil {
		t.Fatalf("Failed to book: %v", err)
	}
	if len(bs) != 2 {
		t.Fatalf("bookings = %d, want 2", len(bs))
	}
	if err := eng.CheckInApartment(ctx, "0xGuest", aid, bs[0].ID); err != nil {
		t.Fatalf("Failed to check in: %v", err)
	}
	if err := eng.RefundBooking(ctx, "0xGuest", aid, bs[1].ID); err != nil {
		t.Fatalf("Failed to refund: %v", err)
	}

	// THEN: Escrow is empty and every unit is accounted for
	// rent 200, deposit floor(200*5/100)=10; night 1 checked in releases
	// 100 to the host and its 5-unit share back to the guest, night 2
	// refunds 105.
	if got := ledger.BalanceOf("0xHost"); got != 100 {
		t.Errorf("host = %d, want 100", got)
	}
	if got := ledger.BalanceOf("0xGuest"); got != 900 {
		t.Errorf("guest = %d, want 900", got)
	}
	if got := ledger.Escrow(); got != 0 {
		t.Errorf("escrow = %d, want 0", got)
	}

	// And the persisted state machine reflects both outcomes.
	stored, _ := st.GetBooking(ctx, aid, bs[0].ID)
	if stored.State() != rental.StateCheckedIn {
		t.Errorf("state = %v, want checked in", stored.State())
	}
	stored, _ = st.GetBooking(ctx, aid, bs[1].ID)
	if stored.State() != rental.StateRefunded {
		t.Errorf("state = %v, want refunded", stored.State())
	}

	free, _ := eng.UnavailableDates(ctx, aid)
	if len(free) != 1 || !free[0].Equal(nights[0]) {
		t.Errorf("unavailable = %v, want only the checked-in night", free)
	}
}
