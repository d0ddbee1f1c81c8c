package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogapp "github.com/storecraft/backend/internal/application/catalog"
	storeapp "github.com/storecraft/backend/internal/application/store"
	"github.com/storecraft/backend/internal/application/storefront"
	themeapp "github.com/storecraft/backend/internal/application/theme"
	"github.com/storecraft/backend/internal/infrastructure/auth"
	"github.com/storecraft/backend/internal/infrastructure/config"
	"github.com/storecraft/backend/internal/infrastructure/logger"
	"github.com/storecraft/backend/internal/infrastructure/persistence"
	"github.com/storecraft/backend/internal/infrastructure/pipeline"
	"github.com/storecraft/backend/internal/interfaces/http/handler"
	"github.com/storecraft/backend/internal/interfaces/http/middleware"
	"github.com/storecraft/backend/internal/interfaces/http/router"
)

//	@title			StoreCraft Backend API
//	@version		1.0
//	@description	Theme build and activation pipeline for multi-tenant storefronts

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting StoreCraft Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Prepare the upload workspace for theme archives and build trees
	workspace, err := pipeline.NewWorkspace(cfg.Pipeline.UploadDir)
	if err != nil {
		log.Fatal("Failed to prepare upload workspace", zap.Error(err))
	}
	log.Info("Upload workspace ready", zap.String("root", workspace.Root()))

	// Assemble the build and activation pipeline
	normalizer := pipeline.NewArchiveNormalizer(log)
	transformer := pipeline.NewTransformer(cfg.Pipeline.APIBaseURL, log)
	remediator := pipeline.NewRemediator(transformer, log)
	builder := pipeline.NewBuilder(
		pipeline.NewExecRunner(log),
		remediator,
		cfg.Pipeline.InstallTimeout,
		cfg.Pipeline.BuildTimeout,
		log,
	)
	activator := pipeline.NewActivator(workspace, log)
	tracker := pipeline.NewStatusTracker(cfg.Pipeline.StatusTTL)
	buildPipeline := pipeline.NewPipeline(
		workspace,
		normalizer,
		transformer,
		builder,
		activator,
		tracker,
		cfg.Pipeline.FailedRetention,
		log,
	)

	// Evict stale deployment statuses in the background
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	tracker.StartSweeper(sweeperCtx, cfg.Pipeline.SweepInterval)

	// Initialize repositories
	themeRepo := persistence.NewGormThemeRepository(db.DB)
	storeRepo := persistence.NewGormStoreRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)

	// Initialize application services
	jwtService := auth.NewJWTService(cfg.JWT)
	themeService := themeapp.NewThemeService(themeRepo, storeRepo, buildPipeline, workspace, log)
	storeService := storeapp.NewStoreService(storeRepo, workspace, log)
	activationService := storeapp.NewActivationService(storeRepo, themeRepo, buildPipeline, log)
	storefrontService := storefront.NewStorefrontService(
		storeRepo, themeRepo, customerRepo, productRepo, categoryRepo, jwtService, log,
	)
	importService := catalogapp.NewImportService(storeRepo, productRepo, categoryRepo, log)

	// Initialize HTTP handlers
	themeHandler := handler.NewThemeHandler(themeService)
	storeHandler := handler.NewStoreHandler(storeService, activationService)
	storefrontHandler := handler.NewStorefrontHandler(storefrontService)
	catalogHandler := handler.NewCatalogHandler(importService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. OptionalJWT - Expose customer claims when a token is presented
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Theme archives arrive through the same server, so the body limit must
	// accommodate the configured maximum upload size
	bodyLimit := cfg.HTTP.MaxBodySize
	if cfg.Pipeline.MaxUploadSize > bodyLimit {
		bodyLimit = cfg.Pipeline.MaxUploadSize
	}
	engine.Use(middleware.BodyLimit(bodyLimit))
	engine.Use(middleware.OptionalJWTAuthMiddleware(jwtService))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Built theme and store artifacts with clean-URL fallback
	staticUploads := middleware.StaticUploads(workspace.Root())
	engine.GET("/uploads/*filepath", staticUploads)
	engine.HEAD("/uploads/*filepath", staticUploads)

	// Register API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(themeHandler).
		Register(storeHandler).
		Register(storefrontHandler).
		Register(catalogHandler).
		Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		payload := gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		}
		if stats, err := db.Stats(); err == nil {
			payload["pool"] = stats
		}
		c.JSON(http.StatusOK, payload)
	}
}
