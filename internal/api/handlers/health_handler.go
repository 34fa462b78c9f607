package handlers

import (
	"context"
	"net/http"

	"github.com/isdelr/blog-be/internal/monitoring"
)

// HealthReporter exposes the latest health check.
type HealthReporter interface {
	Snapshot(ctx context.Context) monitoring.Snapshot
}

// HealthHandler serves /healthz.
type HealthHandler struct {
	monitor HealthReporter
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(monitor HealthReporter) *HealthHandler {
	return &HealthHandler{monitor: monitor}
}

// Get returns 200 while the store is reachable and 503 otherwise.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.monitor.Snapshot(r.Context())
	status := http.StatusOK
	if !snap.Healthy() {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, snap)
}
