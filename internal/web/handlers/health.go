package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/facefit/internal/faceapi"
)

const backendHealthTimeout = 5 * time.Second

// HealthChecker probes the analysis service.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*faceapi.HealthStatus, error)
}

// BackendHealthHandler reports the analysis service's liveness.
type BackendHealthHandler struct {
	client HealthChecker
	logger *zap.Logger
}

// NewBackendHealthHandler creates a new backend health handler.
func NewBackendHealthHandler(client HealthChecker, logger *zap.Logger) *BackendHealthHandler {
	return &BackendHealthHandler{client: client, logger: logger}
}

// Get proxies the service's health endpoint.
func (h *BackendHealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), backendHealthTimeout)
	defer cancel()

	status, err := h.client.HealthCheck(ctx)
	if err != nil {
		h.logger.Warn("analysis service health check failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, status)
}
