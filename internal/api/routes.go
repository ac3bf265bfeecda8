package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vaultsight-backend-go/internal/config"
	"vaultsight-backend-go/internal/core"
	"vaultsight-backend-go/internal/db"
	"vaultsight-backend-go/internal/middleware"
)

// SetupRoutes configures all the application routes with their handlers and
// middleware. Global middleware (Logging, Recovery, CORS) is applied to the
// router instance before this function is called, in main.go.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	reportService core.RiskReportService,
	memberAccessService core.MemberAccessService,
) {
	// The Firebase Auth client must be available after db.InitFirestore().
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		// The application cannot secure routes without it.
		logger.Fatal("CRITICAL_SETUP_ERROR: Firebase Auth client is not initialized. AuthMiddleware cannot be created, and routes will not be set up.")
		panic("Firebase Auth client is nil during route setup. Ensure db.InitFirestore() was called and succeeded.")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient)

	reportHandler := NewReportHandler(reportService)
	memberAccessHandler := NewMemberAccessHandler(memberAccessService)

	apiV1 := router.Group("/api/v1")
	{
		// All report and access endpoints are scoped to an organization and
		// require authentication.
		orgGroup := apiV1.Group("/orgs/:orgId", authMW.VerifyToken())
		{
			reportGroup := orgGroup.Group("/risk-report")
			{
				reportGroup.GET("", reportHandler.GetReport)
				reportGroup.POST("/generate", reportHandler.GenerateReport)
				reportGroup.GET("/critical", reportHandler.GetCriticalReport)
				reportGroup.PUT("/critical", reportHandler.MarkCriticalApplications)
				reportGroup.DELETE("/critical/:applicationName", reportHandler.RemoveCriticalApplication)
				reportGroup.POST("/review", reportHandler.SaveReviewStatus)
			}

			memberAccessGroup := orgGroup.Group("/member-access")
			{
				memberAccessGroup.GET("", memberAccessHandler.ListMemberAccess)
				memberAccessGroup.GET("/:memberId", memberAccessHandler.GetMemberAccessDetail)
			}
		}
	}

	// Public health check, outside the /api/v1 group.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "VaultSight backend is healthy."})
	})

	logger.Info("API routes configured successfully under /api/v1 and /health.")
}
