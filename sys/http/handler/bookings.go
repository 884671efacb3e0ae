package handler

import (
	"net/http"
	"time"

	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/sys/apperror"
	"cleanbuddy-fulfillment/sys/http/middleware"
	"cleanbuddy-fulfillment/sys/lifecycle"

	"github.com/go-chi/chi/v5"
)

type createBookingRequest struct {
	CompanyID   string    `json:"companyId"`
	ServiceID   string    `json:"serviceId"`
	Date        string    `json:"date"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	AddressLine string    `json:"addressLine"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Notes       string    `json:"notes"`
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	in := lifecycle.CreateInput{
		CompanyID:   req.CompanyID,
		ServiceID:   req.ServiceID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		AddressLine: req.AddressLine,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Notes:       req.Notes,
	}
	if req.Date != "" {
		date, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			h.respondError(w, r, apperror.InvalidInput("invalid date %q, expected YYYY-MM-DD", req.Date))
			return
		}
		in.Date = date
	}

	booking, err := h.Lifecycle.Create(r.Context(), middleware.GetCurrentUser(r.Context()), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, mapBooking(booking))
}

type transitionBookingRequest struct {
	Status store.BookingStatus `json:"status"`
}

func (h *Handler) TransitionBooking(w http.ResponseWriter, r *http.Request) {
	var req transitionBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	booking, err := h.Lifecycle.Transition(r.Context(), middleware.GetCurrentUser(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, mapBooking(booking))
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	var req cancelBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	booking, err := h.Lifecycle.Cancel(r.Context(), middleware.GetCurrentUser(r.Context()), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, mapBooking(booking))
}

type assignStaffRequest struct {
	StaffID string `json:"staffId"`
	Notes   string `json:"notes"`
}

func (h *Handler) AssignStaff(w http.ResponseWriter, r *http.Request) {
	var req assignStaffRequest
	if !h.decode(w, r, &req) {
		return
	}

	assignment, err := h.Assignment.AssignStaff(r.Context(), middleware.GetCurrentUser(r.Context()), chi.URLParam(r, "id"), req.StaffID, req.Notes)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, mapAssignment(assignment))
}

func (h *Handler) ListServiceRequests(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.Assignment.ListServiceRequests(r.Context(), middleware.GetCurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	out := make([]assignmentResponse, len(assignments))
	for i, a := range assignments {
		out[i] = mapAssignment(a)
	}
	h.respond(w, http.StatusOK, out)
}

func (h *Handler) ApproveServiceRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.Assignment.Approve(r.Context(), middleware.GetCurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, mapServiceRequest(request))
}

type rejectServiceRequestRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) RejectServiceRequest(w http.ResponseWriter, r *http.Request) {
	var req rejectServiceRequestRequest
	if !h.decode(w, r, &req) {
		return
	}

	request, err := h.Assignment.Reject(r.Context(), middleware.GetCurrentUser(r.Context()), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, mapServiceRequest(request))
}
