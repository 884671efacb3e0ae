package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"cleanbuddy-fulfillment/sys/apperror"
	"cleanbuddy-fulfillment/sys/http/middleware"
)

const maxBodyBytes = 1 << 20

var statusOfKind = map[apperror.Kind]int{
	apperror.KindNotFound:          http.StatusNotFound,
	apperror.KindForbidden:         http.StatusForbidden,
	apperror.KindInvalidState:      http.StatusUnprocessableEntity,
	apperror.KindInvalidTransition: http.StatusConflict,
	apperror.KindConflict:          http.StatusConflict,
	apperror.KindInvalidInput:      http.StatusBadRequest,
}

func (h *Handler) respond(w http.ResponseWriter, status int, v any) {
	if err := middleware.EmitJSON(w, status, v); err != nil {
		h.Logger.Printf("Error writing response: %s", err)
	}
}

// respondError maps a classified error to its status. Unclassified errors are
// logged and hidden from the client.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		h.Logger.Printf("Error handling %s %s: %s", r.Method, r.URL.Path, err)
		h.emitError(w, http.StatusInternalServerError, middleware.ErrorBody{Code: "INTERNAL", Message: "Internal server error"})
		return
	}

	h.emitError(w, statusOfKind[appErr.Kind], middleware.ErrorBody{
		Code:    string(appErr.Kind),
		Message: appErr.Message,
		From:    appErr.From,
		To:      appErr.To,
	})
}

func (h *Handler) emitError(w http.ResponseWriter, status int, body middleware.ErrorBody) {
	if err := middleware.EmitErrorResponse(w, status, body); err != nil {
		h.Logger.Printf("Error writing error response: %s", err)
	}
}

// decode reads a JSON request body into v. An empty body leaves v untouched.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		h.emitError(w, http.StatusBadRequest, middleware.ErrorBody{
			Code:    string(apperror.KindInvalidInput),
			Message: "Malformed request body: " + err.Error(),
		})
		return false
	}
	return true
}
