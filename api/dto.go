/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the engine's domain
  model from the external contract. Amounts appear twice: as whole-token
  decimal strings for humans ("0.5") and as smallest-unit strings for
  programs ("50000000"). Unit strings keep uint64 amounts exact; JSON
  numbers would go through float64.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

CALLER IDENTITY:
  Wallet/signature authentication is out of scope; callers assert their
  identity in the request body (or the "caller" query parameter for
  DELETE). The engine enforces all ownership and role rules regardless.

SEE ALSO:
  - handlers.go: Uses these types
  - rental/units.go: Whole-token conversion
*/
package api

import (
	"strconv"

	"github.com/Dev-Oud/RentalDapp/rental"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ApartmentDTO represents a listing in API responses.
type ApartmentDTO struct {
	ID          uint64   `json:"id"`
	Owner       string   `json:"owner"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Images      []string `json:"images"`
	Rooms       uint64   `json:"rooms"`
	Price       string   `json:"price"`       // whole tokens
	PriceUnits  string   `json:"price_units"` // smallest units
	Deleted     bool     `json:"deleted"`
	Timestamp   int64    `json:"timestamp"`
}

// BookingDTO represents one reserved night.
type BookingDTO struct {
	ID           uint64 `json:"id"`
	ApartmentID  uint64 `json:"aid"`
	Tenant       string `json:"tenant"`
	Date         int64  `json:"date"` // unix seconds, UTC midnight
	Price        string `json:"price"`
	PriceUnits   string `json:"price_units"`
	Deposit      string `json:"deposit"`
	DepositUnits string `json:"deposit_units"`
	Checked      bool   `json:"checked"`
	Cancelled    bool   `json:"cancelled"`
	State        string `json:"state"`
}

// ReviewDTO represents a guest review.
type ReviewDTO struct {
	ID          uint64 `json:"id"`
	ApartmentID uint64 `json:"aid"`
	Owner       string `json:"owner"` // reviewer identity
	Text        string `json:"text"`
	Timestamp   int64  `json:"timestamp"`
}

// BalanceDTO reports a token account.
type BalanceDTO struct {
	Account      string `json:"account"`
	Balance      string `json:"balance"`
	BalanceUnits string `json:"balance_units"`
	Allowance    string `json:"allowance_units"`
}

// FeeDTO reports the security fee rate.
type FeeDTO struct {
	Percent uint64 `json:"percent"`
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ApartmentRequest creates or updates a listing. Price is whole tokens.
type ApartmentRequest struct {
	Caller      string   `json:"caller"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Images      []string `json:"images"`
	Rooms       uint64   `json:"rooms"`
	Price       string   `json:"price"`
}

// BookRequest reserves a set of nights, given as unix-seconds timestamps.
type BookRequest struct {
	Tenant string  `json:"tenant"`
	Dates  []int64 `json:"dates"`
}

// CallerRequest carries only the asserted caller identity (check-in, refund).
type CallerRequest struct {
	Caller string `json:"caller"`
}

// ReviewRequest submits a review.
type ReviewRequest struct {
	Caller string `json:"caller"`
	Text   string `json:"text"`
}

// FeeRequest updates the security fee rate (admin only).
type FeeRequest struct {
	Caller  string `json:"caller"`
	Percent uint64 `json:"percent"`
}

// MintRequest credits a token account (admin only). Amount is whole tokens.
type MintRequest struct {
	Caller  string `json:"caller"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// ApproveRequest grants the engine a spend allowance. Amount is whole tokens.
type ApproveRequest struct {
	Owner  string `json:"owner"`
	Amount string `json:"amount"`
}

// LoadScenarioRequest selects a demo scenario by name.
type LoadScenarioRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func (h *Handler) apartmentDTO(a rental.Apartment) ApartmentDTO {
	return ApartmentDTO{
		ID:          uint64(a.ID),
		Owner:       string(a.Owner),
		Name:        a.Name,
		Description: a.Description,
		Location:    a.Location,
		Images:      a.Images,
		Rooms:       a.Rooms,
		Price:       rental.FormatUnits(a.Price, h.Decimals),
		PriceUnits:  strconv.FormatUint(a.Price, 10),
		Deleted:     a.Deleted,
		Timestamp:   a.CreatedAt.Unix(),
	}
}

func (h *Handler) bookingDTO(b rental.Booking) BookingDTO {
	return BookingDTO{
		ID:           uint64(b.ID),
		ApartmentID:  uint64(b.ApartmentID),
		Tenant:       string(b.Tenant),
		Date:         b.Night.Unix(),
		Price:        rental.FormatUnits(b.Price, h.Decimals),
		PriceUnits:   strconv.FormatUint(b.Price, 10),
		Deposit:      rental.FormatUnits(b.Deposit, h.Decimals),
		DepositUnits: strconv.FormatUint(b.Deposit, 10),
		Checked:      b.Checked,
		Cancelled:    b.Cancelled,
		State:        string(b.State()),
	}
}

func reviewDTO(r rental.Review) ReviewDTO {
	return ReviewDTO{
		ID:          uint64(r.ID),
		ApartmentID: uint64(r.ApartmentID),
		Owner:       string(r.Reviewer),
		Text:        r.Text,
		Timestamp:   r.CreatedAt.Unix(),
	}
}
