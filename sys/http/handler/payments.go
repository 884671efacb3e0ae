package handler

import (
	"net/http"

	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/sys/http/middleware"

	"github.com/go-chi/chi/v5"
)

type createPaymentRequest struct {
	BookingID      string              `json:"bookingId"`
	Method         store.PaymentMethod `json:"method"`
	TransactionRef string              `json:"transactionRef"`
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	payment, err := h.Payments.CreatePayment(r.Context(), middleware.GetCurrentUser(r.Context()), req.BookingID, req.Method, req.TransactionRef)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, mapPayment(payment))
}

type completePaymentRequest struct {
	Status         store.PaymentStatus `json:"status"`
	TransactionRef string              `json:"transactionRef"`
}

func (h *Handler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	var req completePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	payment, err := h.Payments.CompletePayment(r.Context(), middleware.GetCurrentUser(r.Context()), chi.URLParam(r, "id"), req.Status, req.TransactionRef)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, mapPayment(payment))
}
