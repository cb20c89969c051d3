// Package store provides an in-memory rental.Store for tests and dev.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dev-Oud/RentalDapp/rental"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	apartments map[rental.ApartmentID]rental.Apartment
	bookings   map[rental.ApartmentID][]rental.Booking
	reviews    map[rental.ApartmentID][]rental.Review
	nextAptID  rental.ApartmentID
	nextRevID  rental.ReviewID
	fee        uint64
}

func NewMemory() *Memory {
	return &Memory{
		apartments: make(map[rental.ApartmentID]rental.Apartment),
		bookings:   make(map[rental.ApartmentID][]rental.Booking),
		reviews:    make(map[rental.ApartmentID][]rental.Review),
		fee:        rental.DefaultSecurityFee,
	}
}

func (m *Memory) InsertApartment(_ context.Context, a rental.Apartment) (rental.ApartmentID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextAptID++
	a.ID = m.nextAptID
	m.apartments[a.ID] = a.Clone()
	return a.ID, nil
}

func (m *Memory) GetApartment(_ context.Context, id rental.ApartmentID) (rental.Apartment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.apartments[id]
	if !ok {
		return rental.Apartment{}, fmt.Errorf("apartment %d: %w", id, rental.ErrNotFound)
	}
	return a.Clone(), nil
}

func (m *Memory) UpdateApartment(_ context.Context, a rental.Apartment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.apartments[a.ID]; !ok {
		return fmt.Errorf("apartment %d: %w", a.ID, rental.ErrNotFound)
	}
	m.apartments[a.ID] = a.Clone()
	return nil
}

func (m *Memory) ListApartments(_ context.Context) ([]rental.Apartment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]rental.Apartment, 0, len(m.apartments))
	for id := rental.ApartmentID(1); id <= m.nextAptID; id++ {
		if a, ok := m.apartments[id]; ok {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

// InsertBookings assigns sequential per-apartment ids and stores all rows.
// All rows in one call share an apartment by construction (the engine books
// one apartment per operation); rows for several apartments still commit
// atomically under the single lock.
func (m *Memory) InsertBookings(_ context.Context, bs []rental.Booking) ([]rental.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]rental.Booking, len(bs))
	next := make(map[rental.ApartmentID]rental.BookingID)
	for i, b := range bs {
		if _, ok := m.apartments[b.ApartmentID]; !ok {
			return nil, fmt.Errorf("apartment %d: %w", b.ApartmentID, rental.ErrNotFound)
		}
		if _, ok := next[b.ApartmentID]; !ok {
			next[b.ApartmentID] = rental.BookingID(len(m.bookings[b.ApartmentID]))
		}
		next[b.ApartmentID]++
		b.ID = next[b.ApartmentID]
		stored[i] = b
	}
	for _, b := range stored {
		m.bookings[b.ApartmentID] = append(m.bookings[b.ApartmentID], b)
	}
	return stored, nil
}

func (m *Memory) GetBooking(_ context.Context, aid rental.ApartmentID, bid rental.BookingID) (rental.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.bookings[aid] {
		if b.ID == bid {
			return b, nil
		}
	}
	return rental.Booking{}, fmt.Errorf("booking %d of apartment %d: %w", bid, aid, rental.ErrNotFound)
}

func (m *Memory) BookingsForApartment(_ context.Context, aid rental.ApartmentID) ([]rental.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]rental.Booking(nil), m.bookings[aid]...), nil
}

func (m *Memory) UpdateBooking(_ context.Context, b rental.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.bookings[b.ApartmentID]
	for i := range rows {
		if rows[i].ID == b.ID {
			rows[i] = b
			return nil
		}
	}
	return fmt.Errorf("booking %d of apartment %d: %w", b.ID, b.ApartmentID, rental.ErrNotFound)
}

func (m *Memory) InsertReview(_ context.Context, r rental.Review) (rental.ReviewID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.apartments[r.ApartmentID]; !ok {
		return 0, fmt.Errorf("apartment %d: %w", r.ApartmentID, rental.ErrNotFound)
	}
	m.nextRevID++
	r.ID = m.nextRevID
	m.reviews[r.ApartmentID] = append(m.reviews[r.ApartmentID], r)
	return r.ID, nil
}

func (m *Memory) ReviewsForApartment(_ context.Context, aid rental.ApartmentID) ([]rental.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]rental.Review(nil), m.reviews[aid]...), nil
}

func (m *Memory) SecurityFee(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fee, nil
}

func (m *Memory) SetSecurityFee(_ context.Context, pct uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fee = pct
	return nil
}
