package handlers

import (
	"net/http"

	"claim-prediction-api/services"

	"github.com/gin-gonic/gin"
)

// Health reports readiness. The process only starts serving after the
// artifacts loaded, so reaching this handler means they are in place.
func Health(scorer *services.Scorer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "UP",
			"message":   "Claim Prediction API is running",
			"threshold": scorer.Threshold(),
		})
	}
}
