// Package handler provides HTTP handlers for the CurbCycle API.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/curbcycle/curbcycle/internal/api/models"
	"github.com/curbcycle/curbcycle/internal/api/response"
	"github.com/curbcycle/curbcycle/internal/pickup"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	service   *pickup.Service
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, service *pickup.Service) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		service:   service,
	}
}

// HealthCheck handles GET /v1/ops/health, the liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   time.Now(),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready once the
// first schedule snapshot has been built; before that it reports degraded.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   time.Now(),
	}

	snap, err := h.service.Snapshot()
	switch {
	case errors.Is(err, pickup.ErrNoSnapshot):
		health.Status = models.HealthStatusDegraded
		health.Details = map[string]interface{}{
			"snapshot": "not yet available",
		}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	case err != nil:
		health.Status = models.HealthStatusDegraded
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}

	health.Details = map[string]interface{}{
		"snapshotAge": time.Since(snap.FetchedAt).String(),
	}
	response.JSON(w, r, http.StatusOK, health)
}
