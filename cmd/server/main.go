package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dashboardapp "github.com/hospfin/backend/internal/application/dashboard"
	insightapp "github.com/hospfin/backend/internal/application/insight"
	reportapp "github.com/hospfin/backend/internal/application/report"
	reviewapp "github.com/hospfin/backend/internal/application/review"
	settingsapp "github.com/hospfin/backend/internal/application/settings"
	"github.com/hospfin/backend/internal/domain/identity"
	"github.com/hospfin/backend/internal/domain/review"
	"github.com/hospfin/backend/internal/infrastructure/auth"
	"github.com/hospfin/backend/internal/infrastructure/cache"
	"github.com/hospfin/backend/internal/infrastructure/config"
	"github.com/hospfin/backend/internal/infrastructure/event"
	"github.com/hospfin/backend/internal/infrastructure/logger"
	"github.com/hospfin/backend/internal/infrastructure/persistence"
	"github.com/hospfin/backend/internal/infrastructure/telemetry"
	"github.com/hospfin/backend/internal/interfaces/http/handler"
	"github.com/hospfin/backend/internal/interfaces/http/middleware"
	"github.com/hospfin/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

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
		Service:    cfg.Telemetry.ServiceName,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	telCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}

	// Ship log entries to the collector alongside stdout when telemetry is on
	if cfg.Telemetry.Enabled {
		logsProvider, err := telemetry.NewLoggerProvider(context.Background(), telCfg, log)
		if err != nil {
			log.Fatal("Failed to initialize logger provider", zap.Error(err))
		}
		defer func() {
			if err := logsProvider.Shutdown(context.Background()); err != nil {
				log.Error("Error shutting down logger provider", zap.Error(err))
			}
		}()

		otelCore := telemetry.NewZapBridgeCore(logsProvider, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
		log = telemetry.BridgeLogger(log, otelCore)
	}

	log.Info("Starting hospital finance backend",
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

	// Initialize repositories
	reportRepo := persistence.NewGormFinancialReportRepository(db.DB)
	scheduleRepo := persistence.NewGormScheduleRepository(db.DB)
	analysisRepo := persistence.NewGormAnalysisRepository(db.DB)
	archiveLogRepo := persistence.NewGormArchiveLogRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Dashboard stats cache (Redis with in-memory fallback)
	statsCache, err := cache.NewStatsCacheFactory(cfg.Redis, cache.WithLogger(log)).CreateCache()
	if err != nil {
		log.Fatal("Failed to create stats cache", zap.Error(err))
	}

	// Initialize application services
	reportService := reportapp.NewReportService(reportRepo, eventBus)
	dashboardService := dashboardapp.NewDashboardService(reportRepo, statsCache)
	dashboardService.SetCacheTTL(cfg.Dashboard.CacheTTL)
	scheduleService := reviewapp.NewScheduleService(scheduleRepo, reportRepo)
	analysisService := insightapp.NewAnalysisService(reportRepo, analysisRepo)
	archiveService := insightapp.NewArchiveService(reportRepo, archiveLogRepo, eventBus)
	settingsService := settingsapp.NewSettingsService(settingsRepo)

	// Report mutations invalidate cached dashboard stats
	cacheInvalidationHandler := dashboardapp.NewCacheInvalidationHandler(dashboardService, log)
	eventBus.Subscribe(cacheInvalidationHandler)
	log.Info("Event handlers registered",
		zap.Strings("cache_invalidation_events", cacheInvalidationHandler.EventTypes()),
	)

	// OpenTelemetry tracing and metrics (optional)
	var meterProvider *telemetry.MeterProvider
	if cfg.Telemetry.Enabled {
		tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telCfg, log)
		if err != nil {
			log.Fatal("Failed to initialize tracer provider", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				log.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()

		// Query spans ride on the tracer provider registered above
		dbTracing := telemetry.NewDBTracing(0, log)
		if err := dbTracing.Register(db.DB); err != nil {
			log.Fatal("Failed to enable database tracing", zap.Error(err))
		}

		meterProvider, err = telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
			Enabled:           cfg.Telemetry.Enabled,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize meter provider", zap.Error(err))
		}
		defer func() {
			if err := meterProvider.Shutdown(context.Background()); err != nil {
				log.Error("Error shutting down meter provider", zap.Error(err))
			}
		}()

		reportingMetrics, err := telemetry.NewReportingMetrics(telemetry.ReportingMetricsConfig{
			Meter:            meterProvider.Meter("hospfin.reporting"),
			Logger:           log,
			ScheduleProvider: &scheduleOverdueProvider{repo: scheduleRepo},
		})
		if err != nil {
			log.Fatal("Failed to initialize reporting metrics", zap.Error(err))
		}
		eventBus.Subscribe(reportapp.NewMetricsHandler(reportingMetrics))
		reportingMetrics.StartPeriodicCollection(
			context.Background(),
			&settingsHospitalProvider{repo: settingsRepo},
			5*time.Minute,
		)
		defer reportingMetrics.Stop()

		log.Info("Telemetry enabled",
			zap.String("collector", cfg.Telemetry.CollectorEndpoint),
			zap.Float64("sampling_ratio", cfg.Telemetry.SamplingRatio),
		)
	}

	// JWT validation service and token blacklist
	jwtService := auth.NewJWTService(cfg.JWT)
	tokenBlacklist := auth.NewInMemoryTokenBlacklist()

	// Initialize HTTP handlers
	reportHandler := handler.NewReportHandler(reportService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	quickActionsHandler := handler.NewQuickActionsHandler(archiveService, analysisService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
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
	// 5. Tracing/Metrics - OpenTelemetry instrumentation (if enabled)
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			Enabled:       true,
		}))
	}

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimit.Enabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimit.Requests, cfg.HTTP.RateLimit.Window)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimit.Requests),
			zap.Duration("window", cfg.HTTP.RateLimit.Window),
		)
	}

	// Health check endpoints (no authentication)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/api/v1/health", systemHandler.Health)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// All versioned API routes require a valid JWT
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		Logger:         log,
	}))

	// Financial report routes
	reportRoutes := router.NewDomainGroup("reports", "/reports")
	reportRoutes.GET("", middleware.RequireCapability(identity.CapViewReports), reportHandler.ListReports)
	reportRoutes.GET("/stats", middleware.RequireCapability(identity.CapViewReports), reportHandler.GetReportStats)
	reportRoutes.GET("/:id", middleware.RequireCapability(identity.CapViewReports), reportHandler.GetReport)
	reportRoutes.GET("/:id/export", middleware.RequireCapability(identity.CapExportData), reportHandler.ExportReport)
	reportRoutes.POST("", middleware.RequireCapability(identity.CapCreateReports), reportHandler.CreateReport)
	reportRoutes.POST("/:id/duplicate", middleware.RequireCapability(identity.CapCreateReports), reportHandler.DuplicateReport)
	reportRoutes.PUT("/:id", middleware.RequireCapability(identity.CapEditReports), reportHandler.UpdateReport)
	reportRoutes.PATCH("/:id/submit", middleware.RequireCapability(identity.CapEditReports), reportHandler.SubmitReport)
	reportRoutes.PATCH("/:id/approve", middleware.RequireCapability(identity.CapApproveReports), reportHandler.ApproveReport)
	reportRoutes.PATCH("/:id/archive", middleware.RequireCapability(identity.CapEditReports), reportHandler.ArchiveReport)
	reportRoutes.DELETE("/:id", middleware.RequireCapability(identity.CapDeleteReports), reportHandler.DeleteReport)

	// Dashboard routes
	dashboardRoutes := router.NewDomainGroup("dashboard", "/dashboard")
	dashboardRoutes.Use(middleware.RequireCapability(identity.CapViewReports))
	dashboardRoutes.GET("/stats", dashboardHandler.GetStats)
	dashboardRoutes.GET("/charts/revenue", dashboardHandler.GetRevenueChart)
	dashboardRoutes.GET("/charts/expenses", dashboardHandler.GetExpenseChart)
	dashboardRoutes.GET("/charts/profit", dashboardHandler.GetProfitChart)
	dashboardRoutes.GET("/charts/balance-sheet", dashboardHandler.GetBalanceSheetChart)
	dashboardRoutes.GET("/ratios", dashboardHandler.GetFinancialRatios)
	dashboardRoutes.GET("/analysis", dashboardHandler.GetComparativeAnalysis)
	dashboardRoutes.GET("/activity", dashboardHandler.GetRecentActivity)

	// Review schedule routes
	scheduleRoutes := router.NewDomainGroup("schedules", "/schedules")
	scheduleRoutes.GET("", middleware.RequireCapability(identity.CapViewReports), scheduleHandler.ListSchedules)
	scheduleRoutes.GET("/upcoming", middleware.RequireCapability(identity.CapViewReports), scheduleHandler.GetUpcoming)
	scheduleRoutes.GET("/overdue", middleware.RequireCapability(identity.CapViewReports), scheduleHandler.GetOverdue)
	scheduleRoutes.GET("/stats", middleware.RequireCapability(identity.CapViewReports), scheduleHandler.GetScheduleStats)
	scheduleRoutes.GET("/:id", middleware.RequireCapability(identity.CapViewReports), scheduleHandler.GetSchedule)
	scheduleRoutes.POST("", middleware.RequireCapability(identity.CapCreateReports), scheduleHandler.CreateSchedule)
	scheduleRoutes.PUT("/:id", middleware.RequireCapability(identity.CapEditReports), scheduleHandler.UpdateSchedule)
	scheduleRoutes.PATCH("/:id/complete", middleware.RequireCapability(identity.CapEditReports), scheduleHandler.CompleteSchedule)
	scheduleRoutes.PATCH("/:id/status", middleware.RequireCapability(identity.CapEditReports), scheduleHandler.UpdateScheduleStatus)
	scheduleRoutes.POST("/:id/comments", middleware.RequireCapability(identity.CapEditReports), scheduleHandler.AddComment)
	scheduleRoutes.DELETE("/:id", middleware.RequireCapability(identity.CapDeleteReports), scheduleHandler.DeleteSchedule)

	// Quick action routes (bulk archive, trend analysis)
	quickActionRoutes := router.NewDomainGroup("quick-actions", "/quick-actions")
	quickActionRoutes.POST("/archive-reports", middleware.RequireCapability(identity.CapEditReports), quickActionsHandler.ArchiveReports)
	quickActionRoutes.POST("/financial-analysis", middleware.RequireCapability(identity.CapViewReports), quickActionsHandler.GenerateAnalysis)
	quickActionRoutes.GET("/analyses", middleware.RequireCapability(identity.CapViewReports), quickActionsHandler.ListAnalyses)
	quickActionRoutes.GET("/archive-logs", middleware.RequireCapability(identity.CapViewReports), quickActionsHandler.ListArchiveLogs)

	// Hospital settings routes
	settingsRoutes := router.NewDomainGroup("settings", "/settings")
	settingsRoutes.GET("", middleware.RequireCapability(identity.CapViewReports), settingsHandler.GetSettings)
	settingsRoutes.PUT("", middleware.RequireCapability(identity.CapManageSettings), settingsHandler.UpdateSettings)
	settingsRoutes.POST("/reset", middleware.RequireCapability(identity.CapManageSettings), settingsHandler.ResetSettings)

	// Register all domain groups
	r.Register(reportRoutes).
		Register(dashboardRoutes).
		Register(scheduleRoutes).
		Register(quickActionRoutes).
		Register(settingsRoutes)

	// Setup routes
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// scheduleOverdueProvider adapts the schedule repository for periodic
// overdue-count metric collection.
type scheduleOverdueProvider struct {
	repo review.ScheduleRepository
}

func (p *scheduleOverdueProvider) GetOverdueCount(ctx context.Context, hospitalID string) (int64, error) {
	schedules, err := p.repo.FindOverdue(ctx, hospitalID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return int64(len(schedules)), nil
}

// settingsHospitalProvider sources active hospital IDs from the settings
// store for periodic metric collection.
type settingsHospitalProvider struct {
	repo *persistence.GormSettingsRepository
}

func (p *settingsHospitalProvider) GetActiveHospitalIDs(ctx context.Context) ([]string, error) {
	return p.repo.ActiveHospitalIDs(ctx)
}
