package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smarttransit/route-planner/internal/models"
	"github.com/smarttransit/route-planner/internal/services"
)

// PlanHandler handles HTTP requests for route planning
type PlanHandler struct {
	planner *services.PlannerService
	logger  *logrus.Logger
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(planner *services.PlannerService, logger *logrus.Logger) *PlanHandler {
	return &PlanHandler{
		planner: planner,
		logger:  logger,
	}
}

// PlanBetweenStops handles POST /api/v1/plans
// @Summary Plan routes between two stops
// @Tags Planning
// @Accept json
// @Produce json
// @Param plan body models.PlanRequest true "Origin and destination stop IDs"
// @Success 200 {object} models.PlanResponse
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 404 {object} models.PlanResponse "Unknown stop or no route"
// @Failure 503 {object} map[string]interface{} "Network unavailable"
// @Router /api/v1/plans [post]
func (h *PlanHandler) PlanBetweenStops(c *gin.Context) {
	var req models.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid plan request - JSON parsing failed")
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
			"error":   err.Error(),
		})
		return
	}

	response, err := h.planner.PlanBetweenStops(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to plan route. Please try again later.")
		return
	}

	h.respond(c, response)
}

// PlanBetweenCoordinates handles POST /api/v1/plans/coordinates
// @Summary Plan routes between two locations
// @Tags Planning
// @Accept json
// @Produce json
// @Param plan body models.CoordinatePlanRequest true "Origin and destination coordinates"
// @Success 200 {object} models.PlanResponse
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 404 {object} models.PlanResponse "No route"
// @Router /api/v1/plans/coordinates [post]
func (h *PlanHandler) PlanBetweenCoordinates(c *gin.Context) {
	var req models.CoordinatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid coordinate plan request - JSON parsing failed")
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
			"error":   err.Error(),
		})
		return
	}

	response, err := h.planner.PlanBetweenCoordinates(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to plan route. Please try again later.")
		return
	}

	h.respond(c, response)
}

// GetItinerary handles GET /api/v1/itineraries/:id
func (h *PlanHandler) GetItinerary(c *gin.Context) {
	itinerary, err := h.planner.GetItinerary(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to load itinerary")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"itinerary": itinerary,
	})
}

// respond writes a plan response; no_route answers 404 with the full body
func (h *PlanHandler) respond(c *gin.Context, response *models.PlanResponse) {
	h.logger.WithFields(logrus.Fields{
		"status":         response.Status,
		"routes":         len(response.Routes),
		"search_time_ms": response.SearchTimeMs,
	}).Info("Plan request completed")

	if response.Status == models.PlanStatusNoRoute {
		c.JSON(http.StatusNotFound, response)
		return
	}
	c.JSON(http.StatusOK, response)
}
