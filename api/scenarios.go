/*
scenarios.go - Demo scenario loaders

PURPOSE:
  Seeds the engine with recognizable demo data so the front end has
  something to show on a fresh database. Each scenario runs through the
  public engine API only - the same paths real callers take - so loading a
  scenario also exercises the booking and escrow machinery.

SCENARIOS:
  demo-listings   Five listings at 0.5 tokens/night from one host
  booked-stay     A funded guest with a three-night reserved stay
  reviewed-stay   A completed (checked-in) stay plus a review
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Dev-Oud/RentalDapp/rental"
)

const (
	demoHost  = rental.Identity("0xDemoHost")
	demoGuest = rental.Identity("0xDemoGuest")
)

var demoImages = []string{
	"https://images.example.com/listings/loft.jpeg",
	"https://images.example.com/listings/studio.jpeg",
	"https://images.example.com/listings/cabin.jpeg",
	"https://images.example.com/listings/penthouse.jpeg",
	"https://images.example.com/listings/cottage.jpeg",
}

type scenario struct {
	Name        string
	Description string
	Load        func(ctx context.Context, h *Handler) error
}

var scenarios = []scenario{
	{
		Name:        "demo-listings",
		Description: "Five listings at 0.5 tokens per night from one host",
		Load:        loadDemoListings,
	},
	{
		Name:        "booked-stay",
		Description: "A funded guest with a three-night reserved stay",
		Load:        loadBookedStay,
	},
	{
		Name:        "reviewed-stay",
		Description: "A completed stay with a review",
		Load:        loadReviewedStay,
	},
}

func loadDemoListings(ctx context.Context, h *Handler) error {
	price, err := rental.ParseUnits("0.5", h.Decimals)
	if err != nil {
		return err
	}
	names := []string{
		"Sunny Downtown Loft", "Quiet Garden Studio", "Lakeside Cabin",
		"Skyline Penthouse", "Old Town Cottage",
	}
	locations := []string{"Lisbon", "Berlin", "Oslo", "New York", "Prague"}
	for i, name := range names {
		_, err := h.Engine.CreateApartment(ctx, demoHost, rental.ApartmentParams{
			Name:        name,
			Description: fmt.Sprintf("%s - a comfortable stay in %s.", name, locations[i]),
			Location:    locations[i],
			Images:      demoImages,
			Rooms:       uint64(2 + i%3),
			Price:       price,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func loadBookedStay(ctx context.Context, h *Handler) (err error) {
	if err = loadDemoListings(ctx, h); err != nil {
		return err
	}

	funds, err := rental.ParseUnits("10", h.Decimals)
	if err != nil {
		return err
	}
	if err = h.Token.Mint(demoGuest, funds); err != nil {
		return err
	}
	h.Token.Approve(demoGuest, funds)

	// Next three nights, like a guest booking from the calendar.
	start := rental.NightOf(time.Now().UTC()).AddDays(1)
	nights := []rental.Night{start, start.AddDays(1), start.AddDays(2)}
	_, err = h.Engine.BookApartment(ctx, demoGuest, 1, nights)
	return err
}

func loadReviewedStay(ctx context.Context, h *Handler) error {
	if err := loadBookedStay(ctx, h); err != nil {
		return err
	}
	bs, err := h.Engine.Bookings(ctx, 1)
	if err != nil {
		return err
	}
	if err := h.Engine.CheckInApartment(ctx, demoGuest, 1, bs[0].ID); err != nil {
		return err
	}
	_, err = h.Engine.AddReview(ctx, demoGuest, 1, "Lovely place, effortless check-in.")
	return err
}

// =============================================================================
// HTTP HANDLERS
// =============================================================================

func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	out := make([]ScenarioDTO, 0, len(scenarios))
	for _, s := range scenarios {
		out = append(out, ScenarioDTO{Name: s.Name, Description: s.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &rental.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}
	for _, s := range scenarios {
		if s.Name == req.Name {
			if err := s.Load(r.Context(), h); err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"loaded": s.Name})
			return
		}
	}
	writeError(w, fmt.Errorf("scenario %q: %w", req.Name, rental.ErrNotFound))
}
