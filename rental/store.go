/*
store.go - Persistence contract for the ledger store

PURPOSE:
  The Store is the sole owner of all entity data. Components hold only
  transient ids and re-fetch current state before mutating, so no stale
  cached entity can ever be written back.

READ SEMANTICS:
  Every read returns copies, never live references. A caller mutating a
  returned Apartment or Booking changes nothing until it goes back through
  an explicit write operation.

WRITE SEMANTICS:
  Every write is atomic with respect to concurrent callers. InsertBookings
  is all-or-nothing: a five-night stay inserts five rows or none.

IMPLEMENTATIONS:
  - rental/store: In-memory, for tests and dev.
  - store/sqlite: SQLite-backed, WAL mode, with a partial unique index
    backstopping the one-active-booking-per-night invariant.

SEE ALSO:
  - engine.go: Holds the Store and serializes booking-critical sections
*/
package rental

import "context"

// Store persists apartments, bookings, reviews, and the security fee rate.
type Store interface {
	// InsertApartment assigns the next sequential id and stores the listing.
	InsertApartment(ctx context.Context, a Apartment) (ApartmentID, error)

	// GetApartment returns a copy of the listing, ErrNotFound if unknown.
	// Soft-deleted listings are still returned; callers check Deleted.
	GetApartment(ctx context.Context, id ApartmentID) (Apartment, error)

	// UpdateApartment overwrites a stored listing in place. The id must
	// already exist; Owner and CreatedAt are never changed by the engine.
	UpdateApartment(ctx context.Context, a Apartment) error

	// ListApartments returns copies of every listing, deleted ones
	// included, ordered by id. Callers filter.
	ListApartments(ctx context.Context) ([]Apartment, error)

	// InsertBookings atomically stores one row per night, assigning each a
	// sequential per-apartment id. Returns the stored rows with ids set.
	InsertBookings(ctx context.Context, bs []Booking) ([]Booking, error)

	// GetBooking resolves (apartment, booking). ErrNotFound if the booking
	// is unknown or belongs to a different apartment.
	GetBooking(ctx context.Context, aid ApartmentID, bid BookingID) (Booking, error)

	// BookingsForApartment returns copies of all booking rows for the
	// apartment, ordered by id. History is retained: cancelled and
	// checked-in rows are included.
	BookingsForApartment(ctx context.Context, aid ApartmentID) ([]Booking, error)

	// UpdateBooking overwrites a stored booking row. Used only to set the
	// checked/cancelled flags, each exactly once.
	UpdateBooking(ctx context.Context, b Booking) error

	// InsertReview assigns the next review id and stores the review.
	InsertReview(ctx context.Context, r Review) (ReviewID, error)

	// ReviewsForApartment returns copies of the apartment's reviews,
	// ordered by id.
	ReviewsForApartment(ctx context.Context, aid ApartmentID) ([]Review, error)

	// SecurityFee returns the current deposit percentage (0-100).
	SecurityFee(ctx context.Context) (uint64, error)

	// SetSecurityFee replaces the deposit percentage. Authorization is the
	// engine's concern, not the store's.
	SetSecurityFee(ctx context.Context, pct uint64) error
}
