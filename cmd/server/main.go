package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vaultsight-backend-go/internal/api"
	"vaultsight-backend-go/internal/breach"
	"vaultsight-backend-go/internal/cache"
	"vaultsight-backend-go/internal/config"
	"vaultsight-backend-go/internal/core"
	"vaultsight-backend-go/internal/db"
	"vaultsight-backend-go/internal/middleware"
	"vaultsight-backend-go/internal/strength"
)

func main() {
	// --- 1. Initialize Logger (Zap) ---
	// NewDevelopment gives human-readable output; switch to zap.NewProduction()
	// for deployed environments.
	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Zap logger initialized successfully.")

	// --- 2. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded successfully.")

	// --- 3. Initialize Firebase Admin SDK (Firestore and Auth clients) ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	if err := db.InitFirestore(initCtx, appConfig); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firestore and Firebase Admin SDK", zap.Error(err))
	}
	zapLogger.Info("Firebase Admin SDK (Firestore, Auth) initialized successfully.")

	// --- 4. Retrieve initialized clients ---
	firestoreClient := db.GetFirestoreClient()
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firestoreClient == nil {
		zapLogger.Fatal("CRITICAL_ERROR: Firestore client is nil after initialization. Application cannot start.")
	}
	if firebaseAuthClient == nil {
		zapLogger.Fatal("CRITICAL_ERROR: Firebase Auth client is nil after initialization. Application cannot start.")
	}
	zapLogger.Info("Firestore and Firebase Auth clients retrieved successfully.")

	// --- 5. Initialize Repositories ---
	itemRepo := db.NewFirestoreVaultItemRepository(firestoreClient)
	collectionRepo := db.NewFirestoreCollectionRepository(firestoreClient)
	memberRepo := db.NewFirestoreMemberRepository(firestoreClient)
	reportRepo := db.NewFirestoreReportRepository(firestoreClient)
	legacyRepo := db.NewFirestoreLegacyCriticalAppRepository(firestoreClient)
	auditRepo := db.NewFirestoreAuditRepository(firestoreClient)
	zapLogger.Info("Repositories initialized successfully.")

	// --- 6. Initialize Roster Cache (Redis when configured, in-memory otherwise) ---
	var cacheStore cache.Cache
	if appConfig.RedisAddress != "" {
		cacheStore, err = cache.NewRedisCache(cache.NewRedisCacheConfig{
			Address:  appConfig.RedisAddress,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		}, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to Redis for roster cache", zap.Error(err))
		}
		zapLogger.Info("Redis roster cache initialized.", zap.String("address", appConfig.RedisAddress))
	} else {
		cacheStore = cache.NewMemoryCache()
		zapLogger.Info("In-memory roster cache initialized (REDIS_ADDRESS not set).")
	}

	// --- 7. Initialize Core Services ---
	auditService := core.NewAuditService(auditRepo)
	rosterCache := core.NewRosterCache(memberRepo, cacheStore, appConfig.RosterCacheTTL(), zapLogger)
	accessGraphService := core.NewAccessGraphService(zapLogger)
	memberAccessService := core.NewMemberAccessService(itemRepo, collectionRepo, rosterCache, accessGraphService, zapLogger)

	estimator := strength.NewZxcvbnEstimator()
	breachOracle := breach.NewClient(appConfig.BreachOracleBaseURL, zapLogger)
	passwordHealthService := core.NewPasswordHealthService(
		estimator,
		breachOracle,
		appConfig.WeakScoreThreshold,
		appConfig.OracleConcurrency,
		appConfig.HealthBatchSize,
		zapLogger,
	)

	reportEncryptionService, err := core.NewReportEncryptionService(appConfig.MasterEncryptionKey, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize ReportEncryptionService", zap.Error(err))
	}

	riskReportService := core.NewRiskReportService(
		itemRepo,
		collectionRepo,
		rosterCache,
		accessGraphService,
		passwordHealthService,
		reportEncryptionService,
		reportRepo,
		legacyRepo,
		auditService,
		appConfig.AccessBatchSize,
		zapLogger,
	)
	zapLogger.Info("Core services initialized successfully.")

	// --- 8. Setup Gin HTTP Engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
		zapLogger.Info("Gin mode set to 'release'.")
	} else {
		gin.SetMode(gin.DebugMode)
		zapLogger.Info("Gin mode set to 'debug'.")
	}
	router := gin.New()
	zapLogger.Info("Gin engine created.")

	// --- 9. Apply Global Middleware (order is important) ---
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))
	zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))

	// --- 10. Setup API Routes ---
	api.SetupRoutes(
		router,
		appConfig,
		zapLogger,
		riskReportService,
		memberAccessService,
	)

	// --- 11. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 12. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	zapLogger.Info("Attempting graceful shutdown of HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown due to error during graceful shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully.")
}
