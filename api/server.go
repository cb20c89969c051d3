/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions. This
  is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the browser front end

SECURITY NOTE:
  No authentication middleware. Callers assert their identity in request
  bodies; the engine enforces ownership and role rules either way. A real
  deployment fronts this with wallet-signature verification.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Apartment routes
		r.Route("/apartments", func(r chi.Router) {
			r.Get("/", h.ListApartments)
			r.Post("/", h.CreateApartment)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetApartment)
				r.Put("/", h.UpdateApartment)
				r.Delete("/", h.DeleteApartment)
				r.Get("/dates", h.UnavailableDates)
				r.Get("/reviewers", h.QualifiedReviewers)

				r.Route("/bookings", func(r chi.Router) {
					r.Get("/", h.ListBookings)
					r.Post("/", h.BookApartment)
					r.Post("/{bid}/checkin", h.CheckInApartment)
					r.Post("/{bid}/refund", h.RefundBooking)
				})

				r.Route("/reviews", func(r chi.Router) {
					r.Get("/", h.ListReviews)
					r.Post("/", h.AddReview)
				})
			})
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Get("/fee", h.GetSecurityFee)
			r.Put("/fee", h.SetSecurityFee)
		})

		// Token routes
		r.Route("/token", func(r chi.Router) {
			r.Get("/balances/{account}", h.GetBalance)
			r.Post("/mint", h.Mint)
			r.Post("/approve", h.Approve)
		})

		// Demo scenarios
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
