// Package handler exposes the fulfillment operations as a JSON REST API
package handler

import (
	"log"
	"net/http"

	"cleanbuddy-fulfillment/res/auth"
	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/sys/assignment"
	"cleanbuddy-fulfillment/sys/availability"
	"cleanbuddy-fulfillment/sys/http/middleware"
	"cleanbuddy-fulfillment/sys/lifecycle"
	"cleanbuddy-fulfillment/sys/payment"
	"cleanbuddy-fulfillment/sys/rating"
	"cleanbuddy-fulfillment/sys/review"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type Config struct {
	Logger *log.Logger
	Store  store.Store
	Auth   auth.Auth

	Lifecycle    *lifecycle.Engine
	Assignment   *assignment.Service
	Availability *availability.Service
	Payments     *payment.Ledger
	Rating       *rating.Aggregator
	Reviews      *review.Service

	// Events serves the websocket event feed; nil disables the route
	Events http.Handler

	Environment string
	FrontendURL string
}

type Handler struct {
	*Config
}

func New(cfg *Config) http.Handler {
	h := &Handler{Config: cfg}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CSPMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.Environment, cfg.FrontendURL))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.QueryTokenMiddleware("/api/ws/events"))
		r.Use(middleware.AuthMiddleware(cfg.Logger, cfg.Store, cfg.Auth))

		r.Get("/companies/{id}/rating", h.GetCompanyRating)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(cfg.Logger))

			r.Post("/bookings", h.CreateBooking)
			r.Post("/bookings/{id}/transition", h.TransitionBooking)
			r.Post("/bookings/{id}/cancel", h.CancelBooking)
			r.Post("/bookings/{id}/assign", h.AssignStaff)
			r.Get("/bookings/{id}/service-requests", h.ListServiceRequests)

			r.Post("/service-requests/{id}/approve", h.ApproveServiceRequest)
			r.Post("/service-requests/{id}/reject", h.RejectServiceRequest)

			r.Post("/availability", h.DeclareAvailability)
			r.Patch("/availability/{id}", h.UpdateAvailability)
			r.Delete("/availability/{id}", h.RevokeAvailability)

			r.Post("/payments", h.CreatePayment)
			r.Post("/payments/{id}/complete", h.CompletePayment)

			r.Post("/reviews", h.CreateReview)
			r.Patch("/reviews/{id}", h.UpdateReview)
			r.Delete("/reviews/{id}", h.DeleteReview)

			r.Post("/companies/{id}/rating/recompute", h.RecomputeCompanyRating)

			if cfg.Events != nil {
				r.Get("/ws/events", cfg.Events.ServeHTTP)
			}
		})
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}
