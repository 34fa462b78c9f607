package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/blog-be/internal/auth"
	"github.com/isdelr/blog-be/internal/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondServiceError maps a service error to its status code. Only
// unexpected errors are logged at error level; action names what failed.
func respondServiceError(w http.ResponseWriter, err error, action string, fields func(*zerolog.Event) *zerolog.Event) {
	var invalid ValidationErrors
	switch {
	case errors.As(err, &invalid):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: services.ErrValidation.Error(), Details: invalid})
	case errors.Is(err, services.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, services.ErrDuplicateEmail):
		respondError(w, http.StatusConflict, services.ErrDuplicateEmail.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, http.StatusBadRequest, services.ErrInvalidCredentials.Error())
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	default:
		event := log.Error().Err(err)
		if fields != nil {
			event = fields(event)
		}
		event.Msg("Failed to " + action)
		respondError(w, http.StatusInternalServerError, "failed to "+action)
	}
}
