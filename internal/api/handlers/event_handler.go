package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/blog-be/internal/services"
)

// EventHandler serves the activity log.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent returns the newest events. ?limit defaults to 20, capped at 100.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondServiceError(w, ValidationErrors{{Field: "limit", Message: "must be a positive integer"}}, "list events", nil)
			return
		}
		limit = n
	}

	events, err := h.service.GetRecentEvents(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err, "list events", nil)
		return
	}
	respondJSON(w, http.StatusOK, events)
}
