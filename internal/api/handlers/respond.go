package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/zahanati/dashboard-backend/pkg/errors"
)

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// statusFromError maps application error types to HTTP statuses. Upstream
// feed failures surface as 502 so callers can tell them apart from our own
// faults.
func statusFromError(err error) int {
	switch {
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsType(err, apperrors.ErrorTypeValidation):
		return http.StatusBadRequest
	case apperrors.IsExternal(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
