package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smarttransit/route-planner/internal/models"
)

// respondError maps service errors onto HTTP statuses.
// Unknown errors become 500 with fallback as the message.
func respondError(c *gin.Context, logger *logrus.Logger, err error, fallback string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		logger.WithError(err).Warn("Validation error")
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": verr.Message,
		})
	case errors.Is(err, models.ErrInvalidCoordinates):
		logger.WithError(err).Warn("Invalid coordinates")
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrDataUnavailable):
		logger.WithError(err).Error("Network data unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "Transit network is not available. Please try again later.",
		})
	default:
		logger.WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": fallback,
			"error":   err.Error(),
		})
	}
}
