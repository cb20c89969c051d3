/*
Package rental is the core record-keeping and state-transition engine for a
peer-to-peer short-term rental marketplace.

PURPOSE:
  Hosts list apartments, guests book calendar nights by paying in a fungible
  token, funds sit in escrow until check-in or refund, and guests who stayed
  may leave reviews. Everything financially consequential lives here: the
  apartment catalog, the booking/escrow state machine, fee computation, and
  the reviewer-qualification rule.

KEY CONCEPTS IN THIS FILE (types.go):
  - Identity: An opaque, comparable caller identity (wallet address, user id)
  - Apartment: A listing owned by a host, soft-deleted rather than removed
  - Booking: ONE calendar night of one apartment reserved by one tenant
  - Review: An immutable guest review, gated on a checked-in stay
  - Night: A day-granular timestamp (defined in night.go)

DESIGN PRINCIPLES:
  1. Per-night rows: A multi-night stay is one Booking row per night. Conflict
     detection becomes a point lookup, and check-in/refund work per night.
  2. Exact arithmetic: All money is an integer count of the token's smallest
     unit. Fee math is checked uint64 (see fees.go); nothing is ever rounded.
  3. Terminal states: A Booking with Checked or Cancelled set is immutable.
  4. All-or-nothing: Every operation either fully applies or fully rejects.

SEE ALSO:
  - engine.go: Engine construction and configuration
  - booking.go: The booking/escrow/check-in/refund state machine
  - catalog.go: Listing management
  - review.go: Reviewer qualification and review recording
*/
package rental

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

// Identity is an opaque caller identity. The engine assumes nothing about its
// structure beyond equality.
type Identity string

type ApartmentID uint64

// BookingID is sequential per apartment: the pair (ApartmentID, BookingID)
// resolves a booking. This mirrors per-apartment booking lists where the id
// doubles as a sequence position.
type BookingID uint64

type ReviewID uint64

// =============================================================================
// APARTMENT - A host's listing
// =============================================================================

// Apartment is a listing. Owner is immutable after creation. Deleted is a
/// terminal soft-delete state: the record is never physically removed, but a
// deleted apartment accepts no new bookings.
type Apartment struct {
	ID          ApartmentID
	Owner       Identity
	Name        string
	Description string
	Location    string
	Images      []string
	Rooms       uint64
	Price       uint64 // per night, smallest currency unit; > 0 while active
	Deleted     bool
	CreatedAt   time.Time
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate stored state through a read.
func (a Apartment) Clone() Apartment {
	c := a
	c.Images = append([]string(nil), a.Images...)
	return c
}

// =============================================================================
// BOOKING - One reserved night
// =============================================================================

// BookingState is the per-(apartment, night) state machine position.
//
//	Available -> Reserved -> CheckedIn (terminal)
//	                      -> Refunded  (terminal)
//
// A refunded night becomes bookable again only through a fresh Booking row;
// history is retained, never overwritten.
type BookingState string

const (
	StateReserved  BookingState = "reserved"
	StateCheckedIn BookingState = "checked_in"
	StateRefunded  BookingState = "refunded"
)

// Booking reserves a single night of an apartment. Price is the per-night
// rent captured at booking time (never recomputed later). Deposit is this
// night's share of the security deposit, assigned at booking time so the
// shares of a batch sum exactly to the batch deposit (see SplitDeposit).
type Booking struct {
	ID          BookingID
	ApartmentID ApartmentID
	Tenant      Identity
	Night       Night
	Price       uint64
	Deposit     uint64
	Checked     bool
	Cancelled   bool
	CreatedAt   time.Time
}

// State reports the booking's state machine position.
func (b Booking) State() BookingState {
	switch {
	case b.Cancelled:
		return StateRefunded
	case b.Checked:
		return StateCheckedIn
	default:
		return StateReserved
	}
}

// Finalized reports whether the booking reached a terminal state.
func (b Booking) Finalized() bool { return b.Checked || b.Cancelled }

// Escrowed is the amount still held for this night while it is Reserved.
func (b Booking) Escrowed() uint64 { return b.Price + b.Deposit }

// =============================================================================
// REVIEW - Immutable guest feedback
// =============================================================================

// Review is created once a qualified guest submits it and is never mutated
// or deleted. Each qualified identity may review an apartment at most once.
type Review struct {
	ID          ReviewID
	ApartmentID ApartmentID
	Reviewer    Identity
	Text        string
	CreatedAt   time.Time
}

// =============================================================================
// APARTMENT PARAMETERS - Caller input for create/update
// =============================================================================

// ApartmentParams carries the mutable fields of a listing. Validation is
// centralized in one place (catalog.go) rather than re-checked per call site.
type ApartmentParams struct {
	Name        string
	Description string
	Location    string
	Images      []string
	Rooms       uint64
	Price       uint64
}
