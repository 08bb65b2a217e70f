package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/internal/labeling"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrCacheMiss):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrInvalidFingerprint),
		errors.Is(err, contracts.ErrInvalidGrid),
		errors.Is(err, contracts.ErrEmptySeries),
		errors.Is(err, contracts.ErrMissingColumn),
		errors.Is(err, contracts.ErrLengthMismatch),
		errors.Is(err, labeling.ErrInvalidTimestamps),
		errors.Is(err, labeling.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, labeling.ErrCacheDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
