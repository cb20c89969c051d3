/*
handlers.go - HTTP API handlers for the rental marketplace engine

PURPOSE:
  Exposes the engine via REST. Handles HTTP request/response, JSON
  serialization, and delegates every decision to the engine; handlers
  contain no marketplace rules of their own.

ENDPOINTS:
  Apartments:
    GET    /api/apartments                     List all listings
    POST   /api/apartments                     Create listing
    GET    /api/apartments/{id}                Get listing
    PUT    /api/apartments/{id}                Update listing (owner)
    DELETE /api/apartments/{id}?caller=...     Soft-delete listing (owner)

  Bookings:
    GET    /api/apartments/{id}/bookings       List booking rows
    POST   /api/apartments/{id}/bookings       Book nights (tenant pays escrow)
    POST   /api/apartments/{id}/bookings/{bid}/checkin
    POST   /api/apartments/{id}/bookings/{bid}/refund
    GET    /api/apartments/{id}/dates          Unavailable nights

  Reviews:
    GET    /api/apartments/{id}/reviews
    POST   /api/apartments/{id}/reviews
    GET    /api/apartments/{id}/reviewers      Qualified reviewer identities

  Admin / token / demo:
    GET    /api/admin/fee                      Current security fee percent
    PUT    /api/admin/fee                      Update (admin only)
    GET    /api/token/balances/{account}
    POST   /api/token/mint                     Credit an account (admin only)
    POST   /api/token/approve                  Grant the engine an allowance
    GET    /api/scenarios                      List demo scenarios
    POST   /api/scenarios/load                 Seed a demo scenario

ERROR HANDLING:
  Engine error kinds map to HTTP status:
  - 400 invalid input            - 404 not found
  - 402 insufficient funds /     - 409 date conflict, already finalized,
        transfer rejected              already reviewed
  - 403 unauthorized             - 410 listing deleted
  - 422 arithmetic overflow      - 500 everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scenarios.go: Demo scenario loaders
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Dev-Oud/RentalDapp/rental"
	"github.com/Dev-Oud/RentalDapp/token"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine   *rental.Engine
	Token    *token.Ledger
	Decimals int32
}

// NewHandler creates a handler for the given engine and token ledger.
func NewHandler(engine *rental.Engine, ledger *token.Ledger, decimals int32) *Handler {
	if decimals == 0 {
		decimals = rental.DefaultDecimals
	}
	return &Handler{Engine: engine, Token: ledger, Decimals: decimals}
}

// =============================================================================
// APARTMENTS
// =============================================================================

func (h *Handler) ListApartments(w http.ResponseWriter, r *http.Request) {
	apts, err := h.Engine.ListApartments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ApartmentDTO, 0, len(apts))
	for _, a := range apts {
		out = append(out, h.apartmentDTO(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateApartment(w http.ResponseWriter, r *http.Request) {
	var req ApartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &rental.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}
	params, err := h.apartmentParams(req)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := h.Engine.CreateApartment(r.Context(), rental.Identity(req.Caller), params)
	if err != nil {
		writeError(w, err)
		return
	}
	apt, err := h.Engine.GetApartment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.apartmentDTO(apt))
}

func (h *Handler) GetApartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	apt, err := h.Engine.GetApartment(r.Context(), rental.ApartmentID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.apartmentDTO(apt))
}

func (h *Handler) UpdateApartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req ApartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &rental.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}
	params, err := h.apartmentParams(req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Engine.UpdateApartment(r.Context(), rental.Identity(req.Caller), rental.ApartmentID(id), params); err != nil {
		writeError(w, err)
		return
	}
	apt, err := h.Engine.GetApartment(r.Context(), rental.ApartmentID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.apartmentDTO(apt))
}

func (h *Handler) DeleteApartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	caller := rental.Identity(r.URL.Query().Get("caller"))
	if err := h.Engine.DeleteApartment(r.Context(), caller, rental.ApartmentID(id)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BOOKINGS
// =============================================================================

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	bs, err := h.Engine.Bookings(r.Context(), rental.ApartmentID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]BookingDTO, 0, len(bs))
	for _, b := range bs {
		out = append(out, h.bookingDTO(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) BookApartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &rental.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}
	bs, err := h.Engine.BookApartment(r.Context(), rental.Identity(req.Tenant),
		rental.ApartmentID(id), rental.Nights(req.Dates))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]BookingDTO, 0, len(bs))
	for _, b := range bs {
		out = append(out, h.bookingDTO(b))
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) CheckInApartment(w http.ResponseWriter, r *http.Request) {
	aid, bid, caller, err := bookingAction(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Engine.CheckInApartment(r.Context(), caller, aid, bid); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "checked_in"})
}

func (h *Handler) RefundBooking(w http.ResponseWriter, r *http.Request) {
	aid, bid, caller, err := bookingAction(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Engine.RefundBooking(r.Context(), caller, aid, bid); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refunded"})
}

func (h *Handler) UnavailableDates(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	nights, err := h.Engine.UnavailableDates(r.Context(), rental.ApartmentID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]int64, 0, len(nights))
	for _, n := range nights {
		out = append(out, n.Unix())
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// REVIEWS
// =============================================================================

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	rs, err := h.Engine.Reviews(r.Context(), rental.ApartmentID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ReviewDTO, 0, len(rs))
	for _, rv := range rs {
		out = append(out, reviewDTO(rv))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &rental.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}
	rv, err := h.Engine.AddReview(r.Context(), rental.Identity(req.Caller), rental.ApartmentID(id), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reviewDTO(rv))
}

func (h *Handler) QualifiedReviewers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	ids, err := h.Engine.QualifiedReviewers(r.Context(), rental.ApartmentID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]string, 0, len(ids))
	for _, identity := range ids {
		out = append(out, string(identity))
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// ADMIN / TOKEN
// =============================================================================

func (h *Handler) GetSecurityFee(w http.ResponseWriter, r *http.Request) {
	pct, err := h.Engine.SecurityFee(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FeeDTO{Percent: pct})
}

func (h *Handler) SetSecurityFee(w http.ResponseWriter, r *http.Request) {
	var req FeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &rental.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}
	if err := h.Engine.SetSecurityFee(r.Context(), rental.Identity(req.Caller), req.Percent); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FeeDTO{Percent: req.Percent})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account := rental.Identity(chi.URLParam(r, "account"))
	balance := h.Token.BalanceOf(account)
	writeJSON(w, http.StatusOK, BalanceDTO{
		Account:      string(account),
		Balance:      rental.FormatUnits(balance, h.Decimals),
		BalanceUnits: strconv.FormatUint(balance, 10),
		Allowance:    strconv.FormatUint(h.Token.Allowance(account), 10),
	})
}

func (h *Handler) Mint(w http.ResponseWriter, r *http.Request) {
	var req MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &rental.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}
	if rental.Identity(req.Caller) != h.Engine.Admin() {
		writeError(w, rental.ErrUnauthorized)
		return
	}
	units, err := rental.ParseUnits(req.Amount, h.Decimals)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Token.Mint(rental.Identity(req.Account), units); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &rental.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}
	if req.Owner == "" {
		writeError(w, &rental.ValidationError{Field: "owner", Reason: "empty"})
		return
	}
	units, err := rental.ParseUnits(req.Amount, h.Decimals)
	if err != nil {
		writeError(w, err)
		return
	}
	h.Token.Approve(rental.Identity(req.Owner), units)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) apartmentParams(req ApartmentRequest) (rental.ApartmentParams, error) {
	price, err := rental.ParseUnits(req.Price, h.Decimals)
	if err != nil {
		return rental.ApartmentParams{}, err
	}
	return rental.ApartmentParams{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Images:      req.Images,
		Rooms:       req.Rooms,
		Price:       price,
	}, nil
}

func pathID(r *http.Request, name string) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, &rental.ValidationError{Field: name, Reason: "not a positive integer"}
	}
	return id, nil
}

func bookingAction(r *http.Request) (rental.ApartmentID, rental.BookingID, rental.Identity, error) {
	aid, err := pathID(r, "id")
	if err != nil {
		return 0, 0, "", err
	}
	bid, err := pathID(r, "bid")
	if err != nil {
		return 0, 0, "", err
	}
	var req CallerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return 0, 0, "", &rental.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	return rental.ApartmentID(aid), rental.BookingID(bid), rental.Identity(req.Caller), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, rental.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, rental.ErrInsufficientFunds), errors.Is(err, rental.ErrTransferRejected):
		status = http.StatusPaymentRequired
	case errors.Is(err, rental.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, rental.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, rental.ErrDateUnavailable),
		errors.Is(err, rental.ErrAlreadyFinalized),
		errors.Is(err, rental.ErrAlreadyReviewed):
		status = http.StatusConflict
	case errors.Is(err, rental.ErrGone):
		status = http.StatusGone
	case errors.Is(err, rental.ErrArithmeticOverflow):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
