/*
errors.go - Centralized error taxonomy for the rental engine

PURPOSE:
  All error kinds in one place. Callers distinguish failures with errors.Is
  against the sentinels below; structured errors carry context and Unwrap to
  their sentinel. Nothing is ever reported as a bare message string.

ERROR CATEGORIES:
  1. Reference errors  - Missing or soft-deleted entities
  2. Authorization     - Caller lacks the required role/identity match
  3. Validation        - Field fails a value-object rule
  4. State errors      - Booking conflicts and terminal-state violations
  5. Arithmetic        - Fee computation would overflow the chosen width
  6. Transfer errors   - The external token capability reported failure

USAGE:
  if errors.Is(err, rental.ErrDateUnavailable) {
      var conflict *rental.DateConflictError
      if errors.As(err, &conflict) {
          // conflict.Night, conflict.ExistingID
      }
  }

SEE ALSO:
  - booking.go, catalog.go, review.go: Producers of these errors
  - api/handlers.go: Maps kinds to HTTP status codes
*/
package rental

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrGone is returned when a referenced apartment is soft-deleted.
	// Deleted listings accept no new bookings.
	ErrGone = errors.New("listing deleted")

	// ErrUnauthorized is returned when the caller lacks the required
	// role or identity match.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput is returned when a field fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDateUnavailable is returned when a requested night already has a
	// non-cancelled booking. The whole request is rejected; there is no
	// partial booking.
	ErrDateUnavailable = errors.New("date unavailable")

	// ErrAlreadyFinalized is returned when a booking is already checked-in
	// or refunded. Terminal bookings are immutable.
	ErrAlreadyFinalized = errors.New("booking already finalized")

	// ErrAlreadyReviewed is returned when an identity reviews the same
	// apartment twice.
	ErrAlreadyReviewed = errors.New("already reviewed")

	// ErrArithmeticOverflow is returned when a fee computation would
	// overflow uint64.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrInsufficientFunds is returned by the transfer capability when the
	// payer cannot cover the amount. No state mutation occurs.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrTransferRejected is returned when the transfer capability fails
	// for any other reason. No state mutation occurs.
	ErrTransferRejected = errors.New("transfer rejected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which field failed which rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// DateConflictError reports a booking conflict on a specific night.
// ExistingID is zero when the conflict is within the requested batch itself.
type DateConflictError struct {
	ApartmentID ApartmentID
	Night       Night
	ExistingID  BookingID
}

func (e *DateConflictError) Error() string {
	if e.ExistingID == 0 {
		return fmt.Sprintf("night %s requested twice for apartment %d", e.Night, e.ApartmentID)
	}
	return fmt.Sprintf("night %s of apartment %d already booked (booking %d)",
		e.Night, e.ApartmentID, e.ExistingID)
}

func (e *DateConflictError) Unwrap() error { return ErrDateUnavailable }

// InsufficientFundsError details a balance shortfall reported by the token
// capability.
type InsufficientFundsError struct {
	Payer     Identity
	Available uint64
	Required  uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: %s has %d, needs %d", e.Payer, e.Available, e.Required)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a missing or deleted entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrGone)
}

// IsClientError reports whether the error is the caller's fault rather than
// an engine failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrDateUnavailable) ||
		errors.Is(err, ErrAlreadyFinalized) ||
		errors.Is(err, ErrAlreadyReviewed) ||
		errors.Is(err, ErrInsufficientFunds)
}
