package middleware

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"vaultsight-backend-go/internal/config"
)

// CORSMiddleware configures Cross-Origin Resource Sharing for the application.
// Requests are allowed only from the CLIENT_URL in the application
// configuration; the Authorization header must be allowed for token auth.
func CORSMiddleware(appConfig *config.Config) gin.HandlerFunc {
	if appConfig == nil || appConfig.ClientURL == "" {
		// Panic rather than fall back to a misconfigured permissive policy.
		log.Fatal("CRITICAL_ERROR: appConfig or appConfig.ClientURL is not configured for CORSMiddleware.")
		panic("ClientURL for CORS is not configured")
	}

	return cors.New(cors.Config{
		AllowOrigins:     []string{appConfig.ClientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
