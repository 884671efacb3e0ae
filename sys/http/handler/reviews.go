package handler

import (
	"net/http"

	"cleanbuddy-fulfillment/sys/http/middleware"
	"cleanbuddy-fulfillment/sys/review"

	"github.com/go-chi/chi/v5"
)

type createReviewRequest struct {
	BookingID string `json:"bookingId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	created, err := h.Reviews.Create(r.Context(), middleware.GetCurrentUser(r.Context()), req.BookingID, req.Rating, req.Comment)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, mapReview(created))
}

func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var req updateReviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	updated, err := h.Reviews.Update(r.Context(), middleware.GetCurrentUser(r.Context()), chi.URLParam(r, "id"), review.UpdateInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, mapReview(updated))
}

func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.Reviews.Delete(r.Context(), middleware.GetCurrentUser(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetCompanyRating(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Rating.CompanyRating(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, summary)
}

func (h *Handler) RecomputeCompanyRating(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Rating.RecomputeCompanyRating(r.Context(), middleware.GetCurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, summary)
}
