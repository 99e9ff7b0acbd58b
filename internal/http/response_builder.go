package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finpulse/internal/bankdata"
	"finpulse/internal/core"
	"finpulse/internal/log"
	"finpulse/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrorBody(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps service errors onto HTTP statuses. Unknown errors answer
// 500 with a generic body; the detail stays in the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrSnapshotNotFound), errors.Is(err, bankdata.ErrUserNotFound):
		writeErrorBody(w, http.StatusNotFound, "no bank data for this user")
	case errors.Is(err, core.ErrUnknownObligation):
		writeErrorBody(w, http.StatusNotFound, "unknown obligation")
	case errors.Is(err, core.ErrUnknownBank):
		writeErrorBody(w, http.StatusNotFound, "unknown bank")
	case errors.Is(err, core.ErrInvalidAmount):
		writeErrorBody(w, http.StatusUnprocessableEntity, "amount must be a positive decimal")
	case errors.Is(err, services.ErrInvalidSettings):
		writeErrorBody(w, http.StatusUnprocessableEntity, "unknown strategy, risk or goal")
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path, log.FieldError, err)
		writeErrorBody(w, http.StatusInternalServerError, "internal error")
	}
}
