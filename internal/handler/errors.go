package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fleetops/km-tracker/internal/domain"
)

// ErrorResponse is the JSON body returned for every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code plus a human message.
// The code lets the client distinguish "retry capture" (validation_error)
// from "nothing to do, already in this state" (conflict) from "contact admin"
// (not_found).
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError writes a structured error body.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeDomainError maps a service error onto the HTTP taxonomy:
// ErrNotFound → 404, ErrValidation → 422, ErrConflict → 409, anything else →
// a generic 500 that does not leak internals.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "driver record not found; contact an administrator")
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", unwrapMessage(err))
	default:
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// unwrapMessage strips the "layer.Type.Method:" prefixes services wrap
// around sentinel errors, leaving the human-readable tail.
// e.g. "service.JourneyService.EndJourney: no journey started today: conflict"
// → "no journey started today: conflict".
func unwrapMessage(err error) string {
	msg := err.Error()
	for {
		i := strings.Index(msg, ": ")
		if i < 0 {
			return msg
		}
		prefix := msg[:i]
		if !strings.HasPrefix(prefix, "service.") && !strings.HasPrefix(prefix, "repo.") {
			return msg
		}
		msg = msg[i+2:]
	}
}
