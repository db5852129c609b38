// Package respond writes JSON responses and maps shared storage errors to
// HTTP status codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/dentaai-platform/internal/store"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// UnavailableMessage is the generic text shown when the store cannot be reached.
const UnavailableMessage = "Sistem şu anda yanıt veremiyor. Lütfen daha sonra tekrar deneyin."

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Error writes {"error": msg}.
func Error(w http.ResponseWriter, msg string, status int) {
	JSON(w, status, map[string]string{"error": msg})
}

// Decode reads a JSON body into dst, writing 400 on failure.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// StoreError handles errors that escaped domain-specific mapping: missing
// records are 404, store outages 503, everything else 500.
func StoreError(w http.ResponseWriter, logger *logging.Logger, msg string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, store.ErrUnavailable):
		logger.Error(msg, "error", err)
		Error(w, UnavailableMessage, http.StatusServiceUnavailable)
	default:
		logger.Error(msg, "error", err)
		Error(w, "internal server error", http.StatusInternalServerError)
	}
}
