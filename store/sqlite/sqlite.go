/*
Package sqlite provides a SQLite-backed implementation of rental.Store.

PURPOSE:
  Durable persistence for the marketplace ledger. The same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  apartments:  Listings, soft-deleted in place (deleted flag, never DELETE)
  bookings:    One row per reserved night, keyed (apartment_id, id)
  reviews:     Immutable review records
  config:      Single-row settings (security fee percentage)

INVARIANT BACKSTOP:
  idx_bookings_active_night is a partial unique index on
  (apartment_id, night) WHERE cancelled = 0. The engine's per-apartment
  critical section already prevents double-booking; the index makes the
  database reject it even if a bug slips past the engine.

AMOUNT ENCODING:
  Prices and deposits are stored as decimal TEXT, not INTEGER: amounts are
  uint64 smallest units and SQLite integers are signed 64-bit, so the top
  half of the range would not round-trip.

WAL MODE:
  Opened with WAL (Write-Ahead Logging): readers don't block, single writer
  at a time, better crash recovery.

USAGE:
  st, err := sqlite.New("./data/rental.db")   // ":memory:" for tests
  if err != nil { ... }
  defer st.Close()
  engine := rental.New(st, tokenLedger, admin)

SEE ALSO:
  - rental/store.go: Interface definition and read/write semantics
  - rental/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Dev-Oud/RentalDapp/rental"
)

// Store implements rental.Store on SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS apartments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		location TEXT NOT NULL,
		images_json TEXT NOT NULL,
		rooms INTEGER NOT NULL,
		price TEXT NOT NULL,
		deleted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bookings (
		apartment_id INTEGER NOT NULL,
		id INTEGER NOT NULL,
		tenant TEXT NOT NULL,
		night TEXT NOT NULL,
		price TEXT NOT NULL,
		deposit TEXT NOT NULL,
		checked INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		PRIMARY KEY (apartment_id, id),
		FOREIGN KEY (apartment_id) REFERENCES apartments(id)
	);

	-- CRITICAL: at most one non-cancelled booking per apartment night.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_night
		ON bookings(apartment_id, night)
		WHERE cancelled = 0;

	CREATE INDEX IF NOT EXISTS idx_bookings_tenant
		ON bookings(tenant);

	CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		apartment_id INTEGER NOT NULL,
		reviewer TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (apartment_id) REFERENCES apartments(id)
	);

	-- One review per identity per apartment.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_unique_reviewer
		ON reviews(apartment_id, reviewer);

	CREATE INDEX IF NOT EXISTS idx_reviews_apartment
		ON reviews(apartment_id);

	CREATE TABLE IF NOT EXISTS config (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO config (key, value) VALUES ('security_fee', ?)`,
		strconv.FormatUint(rental.DefaultSecurityFee, 10),
	)
	return err
}

// =============================================================================
// APARTMENTS
// =============================================================================

func (s *Store) InsertApartment(ctx context.Context, a rental.Apartment) (rental.ApartmentID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	imagesJSON, err := json.Marshal(a.Images)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO apartments (owner, name, description, location, images_json, rooms, price, deleted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(a.Owner), a.Name, a.Description, a.Location, string(imagesJSON),
		a.Rooms, strconv.FormatUint(a.Price, 10), boolInt(a.Deleted),
		a.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return rental.ApartmentID(id), nil
}

func (s *Store) GetApartment(ctx context.Context, id rental.ApartmentID) (rental.Apartment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, name, description, location, images_json, rooms, price, deleted, created_at
		FROM apartments WHERE id = ?`, uint64(id))
	a, err := scanApartment(row)
	if err == sql.ErrNoRows {
		return rental.Apartment{}, fmt.Errorf("apartment %d: %w", id, rental.ErrNotFound)
	}
	return a, err
}

func (s *Store) UpdateApartment(ctx context.Context, a rental.Apartment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	imagesJSON, err := json.Marshal(a.Images)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE apartments
		SET name = ?, description = ?, location = ?, images_json = ?, rooms = ?, price = ?, deleted = ?
		WHERE id = ?`,
		a.Name, a.Description, a.Location, string(imagesJSON), a.Rooms,
		strconv.FormatUint(a.Price, 10), boolInt(a.Deleted), uint64(a.ID),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("apartment %d: %w", a.ID, rental.ErrNotFound)
	}
	return nil
}

func (s *Store) ListApartments(ctx context.Context) ([]rental.Apartment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, name, description, location, images_json, rooms, price, deleted, created_at
		FROM apartments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rental.Apartment
	for rows.Next() {
		a, err := scanApartment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// BOOKINGS
// =============================================================================

// InsertBookings writes all rows inside one database transaction, assigning
// each the next sequential id for its apartment. Either all rows commit or
// none do.
func (s *Store) InsertBookings(ctx context.Context, bs []rental.Booking) ([]rental.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stored := make([]rental.Booking, len(bs))
	next := make(map[rental.ApartmentID]rental.BookingID)
	for i, b := range bs {
		if _, ok := next[b.ApartmentID]; !ok {
			var maxID sql.NullInt64
			err := tx.QueryRowContext(ctx,
				`SELECT MAX(id) FROM bookings WHERE apartment_id = ?`, uint64(b.ApartmentID),
			).Scan(&maxID)
			if err != nil {
				return nil, err
			}
			next[b.ApartmentID] = rental.BookingID(maxID.Int64)
		}
		next[b.ApartmentID]++
		b.ID = next[b.ApartmentID]

		_, err := tx.ExecContext(ctx, `
			INSERT INTO bookings (apartment_id, id, tenant, night, price, deposit, checked, cancelled, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uint64(b.ApartmentID), uint64(b.ID), string(b.Tenant), b.Night.String(),
			strconv.FormatUint(b.Price, 10), strconv.FormatUint(b.Deposit, 10),
			boolInt(b.Checked), boolInt(b.Cancelled),
			b.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return nil, err
		}
		stored[i] = b
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Store) GetBooking(ctx context.Context, aid rental.ApartmentID, bid rental.BookingID) (rental.Booking, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT apartment_id, id, tenant, night, price, deposit, checked, cancelled, created_at
		FROM bookings WHERE apartment_id = ? AND id = ?`, uint64(aid), uint64(bid))
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return rental.Booking{}, fmt.Errorf("booking %d of apartment %d: %w", bid, aid, rental.ErrNotFound)
	}
	return b, err
}

func (s *Store) BookingsForApartment(ctx context.Context, aid rental.ApartmentID) ([]rental.Booking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT apartment_id, id, tenant, night, price, deposit, checked, cancelled, created_at
		FROM bookings WHERE apartment_id = ? ORDER BY id`, uint64(aid))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rental.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) UpdateBooking(ctx context.Context, b rental.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings SET checked = ?, cancelled = ?
		WHERE apartment_id = ? AND id = ?`,
		boolInt(b.Checked), boolInt(b.Cancelled), uint64(b.ApartmentID), uint64(b.ID),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("booking %d of apartment %d: %w", b.ID, b.ApartmentID, rental.ErrNotFound)
	}
	return nil
}

// =============================================================================
// REVIEWS
// =============================================================================

func (s *Store) InsertReview(ctx context.Context, r rental.Review) (rental.ReviewID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (apartment_id, reviewer, text, created_at)
		VALUES (?, ?, ?, ?)`,
		uint64(r.ApartmentID), string(r.Reviewer), r.Text,
		r.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return rental.ReviewID(id), nil
}

func (s *Store) ReviewsForApartment(ctx context.Context, aid rental.ApartmentID) ([]rental.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, apartment_id, reviewer, text, created_at
		FROM reviews WHERE apartment_id = ? ORDER BY id`, uint64(aid))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rental.Review
	for rows.Next() {
		var (
			r        rental.Review
			id, apID uint64
			created  string
		)
		if err := rows.Scan(&id, &apID, &r.Reviewer, &r.Text, &created); err != nil {
			return nil, err
		}
		r.ID = rental.ReviewID(id)
		r.ApartmentID = rental.ApartmentID(apID)
		if r.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// CONFIG
// =============================================================================

func (s *Store) SecurityFee(ctx context.Context) (uint64, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM config WHERE key = 'security_fee'`).Scan(&v)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(v, 10, 64)
}

func (s *Store) SetSecurityFee(ctx context.Context, pct uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES ('security_fee', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.FormatUint(pct, 10),
	)
	return err
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApartment(row rowScanner) (rental.Apartment, error) {
	var (
		a          rental.Apartment
		id         uint64
		imagesJSON string
		price      string
		deleted    int
		created    string
	)
	err := row.Scan(&id, &a.Owner, &a.Name, &a.Description, &a.Location,
		&imagesJSON, &a.Rooms, &price, &deleted, &created)
	if err != nil {
		return rental.Apartment{}, err
	}
	a.ID = rental.ApartmentID(id)
	a.Deleted = deleted != 0
	if err := json.Unmarshal([]byte(imagesJSON), &a.Images); err != nil {
		return rental.Apartment{}, err
	}
	if a.Price, err = strconv.ParseUint(price, 10, 64); err != nil {
		return rental.Apartment{}, err
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return rental.Apartment{}, err
	}
	return a, nil
}

func scanBooking(row rowScanner) (rental.Booking, error) {
	var (
		b                  rental.Booking
		aid, id            uint64
		night              string
		price, deposit     string
		checked, cancelled int
		created            string
	)
	err := row.Scan(&aid, &id, &b.Tenant, &night, &price, &deposit,
		&checked, &cancelled, &created)
	if err != nil {
		return rental.Booking{}, err
	}
	b.ApartmentID = rental.ApartmentID(aid)
	b.ID = rental.BookingID(id)
	b.Checked = checked != 0
	b.Cancelled = cancelled != 0
	if b.Night, err = rental.ParseNight(night); err != nil {
		return rental.Booking{}, err
	}
	if b.Price, err = strconv.ParseUint(price, 10, 64); err != nil {
		return rental.Booking{}, err
	}
	if b.Deposit, err = strconv.ParseUint(deposit, 10, 64); err != nil {
		return rental.Booking{}, err
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return rental.Booking{}, err
	}
	return b, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
