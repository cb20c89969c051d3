/*
engine.go - Engine construction, configuration, and the critical section

PURPOSE:
  Wires the ledger store, the external token capability, and the privileged
  administrative identity into one Engine. Catalog, booking, and review
  operations hang off the Engine in their own files.

CONCURRENCY:
  The engine processes each operation to completion before its effects are
  observable. Booking-critical sections (availability check through row
  insert) are guarded by a per-apartment mutex, so two simultaneous bookings
  for the same night cannot both succeed, while bookings on different
  apartments do not serialize against each other.

CONFIGURATION:
  The security fee rate lives in the Store, seeded at DefaultSecurityFee.
  Only the admin identity fixed at construction may change it. There is no
  ambient global state: everything is injected here.

SEE ALSO:
  - booking.go: Uses the per-apartment critical section
  - factory: Builds an Engine from a JSON marketplace config
*/
package rental

import (
	"context"
	"sync"
	"time"
)

// Engine is the marketplace state-transition engine. Construct with New.
type Engine struct {
	store Store
	token TransferCapability
	admin Identity
	now   func() time.Time

	mu    sync.Mutex
	locks map[ApartmentID]*sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the record-creation timestamp source. Tests use this
// for deterministic CreatedAt values.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an Engine. admin is the only identity allowed to change the
// security fee rate.
func New(store Store, token TransferCapability, admin Identity, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		token: token,
		admin: admin,
		now:   func() time.Time { return time.Now().UTC() },
		locks: make(map[ApartmentID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// lockApartment acquires the per-apartment critical section and returns the
// release function.
func (e *Engine) lockApartment(id ApartmentID) func() {
	e.mu.Lock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// =============================================================================
// SECURITY FEE - Administrative configuration
// =============================================================================

// SecurityFee returns the current deposit percentage.
func (e *Engine) SecurityFee(ctx context.Context) (uint64, error) {
	return e.store.SecurityFee(ctx)
}

// SetSecurityFee replaces the deposit percentage. Only the administrative
// identity may call it; the rate is bounded to [0, MaxSecurityFee].
func (e *Engine) SetSecurityFee(ctx context.Context, caller Identity, pct uint64) error {
	if caller != e.admin {
		return ErrUnauthorized
	}
	if pct > MaxSecurityFee {
		return &ValidationError{Field: "security_fee", Reason: "exceeds 100 percent"}
	}
	return e.store.SetSecurityFee(ctx, pct)
}

// Admin returns the administrative identity.
func (e *Engine) Admin() Identity { return e.admin }
