package middleware

import (
	"encoding/json"
	"net/http"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// set for rejected booking status transitions
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

func EmitJSON(w http.ResponseWriter, status int, v any) error {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("X-Content-Type-Options", "nosniff")

	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// EmitErrorResponse writes body wrapped in the {"error": ...} envelope every endpoint uses
func EmitErrorResponse(w http.ResponseWriter, status int, body ErrorBody) error {
	return EmitJSON(w, status, errorEnvelope{Error: body})
}
