// ABOUTME: HTTP handlers for liveness and health endpoints
// ABOUTME: Reports the web server status plus a cached snapshot of backend health

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vocalswap/vocalswap-web/models"
	"github.com/vocalswap/vocalswap-web/services"
)

const (
	serviceName      = "vocalswap-web"
	backendHealthKey = "health:backend"
	statusOK         = "ok"
	statusDegraded   = "degraded"
)

var errBackendNotConfigured = errors.New("backend not configured")

// Liveness answers without touching the backend.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": statusOK})
}

// Health returns the web server status including the backend health snapshot.
// Healthy snapshots are cached for HEALTH_CACHE_TTL; failures are not cached.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.ServiceHealth{Status: statusOK, Service: serviceName}

	backend, err := h.healthCache.GetOrLoad(r.Context(), backendHealthKey, h.loadBackendHealth)
	if err != nil {
		slog.Warn("Backend health check failed", "error", err)
		resp.Status = statusDegraded
		resp.BackendError = healthErrorText(err)
		h.writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.Backend = &backend
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) loadBackendHealth(ctx context.Context) (models.HealthResponse, error) {
	if h.backend == nil {
		return models.HealthResponse{}, errBackendNotConfigured
	}
	res, err := h.backend.Health(ctx)
	if err != nil {
		return models.HealthResponse{}, err
	}
	if !res.OK() {
		return models.HealthResponse{}, fmt.Errorf("backend reported status %d", res.Status)
	}
	return res.Value, nil
}

// healthErrorText keeps transport internals out of the public health body.
func healthErrorText(err error) string {
	switch services.ReasonCode(err) {
	case "timeout":
		return "backend timed out"
	case "network_error":
		return "backend unreachable"
	case "invalid_backend_response":
		return "backend returned an unexpected response"
	default:
		return err.Error()
	}
}
