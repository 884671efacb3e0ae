package handler

import (
	"net/http"
	"time"

	"cleanbuddy-fulfillment/sys/apperror"
	"cleanbuddy-fulfillment/sys/availability"
	"cleanbuddy-fulfillment/sys/http/middleware"

	"github.com/go-chi/chi/v5"
)

type declareAvailabilityRequest struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type updateAvailabilityRequest struct {
	Date  *string `json:"date"`
	Start *string `json:"start"`
	End   *string `json:"end"`
}

func parseDate(s string) (time.Time, error) {
	date, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, apperror.InvalidInput("invalid date %q, expected YYYY-MM-DD", s)
	}
	return date, nil
}

func parseClock(s string) (availability.Clock, error) {
	c, err := availability.ParseClock(s)
	if err != nil {
		return availability.Clock{}, apperror.InvalidInput("%s", err)
	}
	return c, nil
}

func (h *Handler) DeclareAvailability(w http.ResponseWriter, r *http.Request) {
	var req declareAvailabilityRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		in  availability.DeclareInput
		err error
	)
	if in.Date, err = parseDate(req.Date); err != nil {
		h.respondError(w, r, err)
		return
	}
	if in.Start, err = parseClock(req.Start); err != nil {
		h.respondError(w, r, err)
		return
	}
	if in.End, err = parseClock(req.End); err != nil {
		h.respondError(w, r, err)
		return
	}

	slot, err := h.Availability.Declare(r.Context(), middleware.GetCurrentUser(r.Context()), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, mapSlot(slot))
}

func (h *Handler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	var req updateAvailabilityRequest
	if !h.decode(w, r, &req) {
		return
	}

	var in availability.UpdateInput
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		in.Date = &date
	}
	if req.Start != nil {
		start, err := parseClock(*req.Start)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		in.Start = &start
	}
	if req.End != nil {
		end, err := parseClock(*req.End)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		in.End = &end
	}

	slot, err := h.Availability.Update(r.Context(), middleware.GetCurrentUser(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, mapSlot(slot))
}

func (h *Handler) RevokeAvailability(w http.ResponseWriter, r *http.Request) {
	slot, err := h.Availability.Revoke(r.Context(), middleware.GetCurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, mapSlot(slot))
}
