package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-billing/internal/models"
	"github.com/noah-isme/tutor-billing/internal/service"
)

type readinessChecker interface {
	Status() models.SyncStatus
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	sync    readinessChecker
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, sync readinessChecker) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, sync: sync}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the bundle has been loaded from Drive.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.sync == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	status := h.sync.Status()
	body := gin.H{"status": "ok", "connected": status.Connected, "phase": status.Phase}
	if !status.Connected {
		body["status"] = "degraded"
	}
	c.JSON(http.StatusOK, body)
}
