package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aster-app/aster/internal/services"
)

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}

// serviceError maps a service-layer error onto an HTTP response.
func serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
	case errors.Is(err, services.ErrConflict):
		http.Error(w, "Already exists", http.StatusConflict)
	case errors.Is(err, services.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, services.ErrInvalidCredentials):
		http.Error(w, "Incorrect username or password", http.StatusUnauthorized)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Unhandled service error")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
