package middleware

import (
	"time"

	"claim-prediction-api/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupCORS guards the JSON API. The form page is same-origin and does not
// need it.
func SetupCORS(cfg config.CORSConfig) gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	if cfg.AllowAll() {
		base.AllowAllOrigins = true
		return cors.New(base)
	}

	base.AllowOrigins = cfg.Origins()
	return cors.New(base)
}
