package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smarttransit/route-planner/internal/models"
	"github.com/smarttransit/route-planner/internal/services"
	"github.com/smarttransit/route-planner/pkg/validator"
)

// StopHandler handles HTTP requests for stops and lines
type StopHandler struct {
	stops  *services.StopService
	coords *validator.CoordinateValidator
	logger *logrus.Logger
}

// NewStopHandler creates a new stop handler
func NewStopHandler(stops *services.StopService, coords *validator.CoordinateValidator, logger *logrus.Logger) *StopHandler {
	return &StopHandler{
		stops:  stops,
		coords: coords,
		logger: logger,
	}
}

// NearbyStops handles GET /api/v1/stops/nearby?lat=&lng=
// @Summary List stops within walking distance
// @Tags Stops
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Invalid coordinates"
// @Router /api/v1/stops/nearby [get]
func (h *StopHandler) NearbyStops(c *gin.Context) {
	location, ok := h.location(c)
	if !ok {
		return
	}

	stops, err := h.stops.NearbyStops(c.Request.Context(), location)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load nearby stops")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"count":  len(stops),
		"stops":  stops,
	})
}

// GetStop handles GET /api/v1/stops/:id
func (h *StopHandler) GetStop(c *gin.Context) {
	stop, err := h.stops.GetStop(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to load stop")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"stop":   stop,
	})
}

// WalkingToStop handles GET /api/v1/stops/:id/walking?lat=&lng=
func (h *StopHandler) WalkingToStop(c *gin.Context) {
	location, ok := h.location(c)
	if !ok {
		return
	}

	leg, err := h.stops.WalkingToStop(c.Request.Context(), c.Param("id"), location)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load walking route")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"walk":   leg,
	})
}

// GetLine handles GET /api/v1/lines/:id
func (h *StopHandler) GetLine(c *gin.Context) {
	line, err := h.stops.GetLine(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to load line")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"line":   line,
	})
}

// location reads lat/lng query parameters, answering 400 when they are unusable
func (h *StopHandler) location(c *gin.Context) (models.Coordinate, bool) {
	lat, lng, err := h.coords.Parse(c.Query("lat"), c.Query("lng"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return models.Coordinate{}, false
	}
	return models.Coordinate{Lat: lat, Lng: lng}, true
}
