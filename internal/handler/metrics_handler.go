package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/datecheck-bot/internal/service"
)

const aliveText = "Bot is alive!"

// MetricsHandler exposes liveness and observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Alive answers the hosting platform's keep-alive probe.
func (h *MetricsHandler) Alive(c *gin.Context) {
	c.String(http.StatusOK, aliveText)
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with OK and the process counters.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "metrics": h.metrics.Snapshot()})
}
