package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smarttransit/route-planner/internal/middleware"
	"github.com/smarttransit/route-planner/internal/services"
)

// NetworkHandler handles network status, reload and health checks
type NetworkHandler struct {
	network *services.NetworkService
	version string
	logger  *logrus.Logger
}

// NewNetworkHandler creates a new network handler
func NewNetworkHandler(network *services.NetworkService, version string, logger *logrus.Logger) *NetworkHandler {
	return &NetworkHandler{
		network: network,
		version: version,
		logger:  logger,
	}
}

// Health handles GET /health.
// The service is healthy once a network snapshot has been published.
func (h *NetworkHandler) Health(c *gin.Context) {
	status := h.network.Status()
	body := gin.H{
		"status":    "healthy",
		"network":   "loaded",
		"version":   h.version,
		"timestamp": time.Now().Unix(),
	}
	if !status.Loaded {
		body["status"] = "unhealthy"
		body["network"] = "not_loaded"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["network_version"] = status.Version
	c.JSON(http.StatusOK, body)
}

// Status handles GET /api/v1/network/status
func (h *NetworkHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "success",
		"network":            h.network.Status(),
		"stored_itineraries": h.network.StoredItineraries(),
	})
}

// Reload handles POST /api/v1/admin/network/reload
func (h *NetworkHandler) Reload(c *gin.Context) {
	subject := "unknown"
	if operator, ok := middleware.GetOperatorContext(c); ok {
		subject = operator.Subject
	}
	h.logger.WithField("operator", subject).Info("Network reload requested")

	status, err := h.network.Reload(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Network reload failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "Network reload failed, previous network remains active",
			"error":   err.Error(),
			"network": status,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Network reloaded",
		"network": status,
	})
}
