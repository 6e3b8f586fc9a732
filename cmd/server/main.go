package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	approvalapp "github.com/tallybridge/backend/internal/application/approval"
	eventapp "github.com/tallybridge/backend/internal/application/event"
	identityapp "github.com/tallybridge/backend/internal/application/identity"
	mastersapp "github.com/tallybridge/backend/internal/application/masters"
	reportapp "github.com/tallybridge/backend/internal/application/report"
	tallysyncapp "github.com/tallybridge/backend/internal/application/tallysync"
	"github.com/tallybridge/backend/internal/domain/shared"
	"github.com/tallybridge/backend/internal/infrastructure/auth"
	"github.com/tallybridge/backend/internal/infrastructure/cache"
	"github.com/tallybridge/backend/internal/infrastructure/config"
	"github.com/tallybridge/backend/internal/infrastructure/event"
	"github.com/tallybridge/backend/internal/infrastructure/logger"
	"github.com/tallybridge/backend/internal/infrastructure/notification"
	"github.com/tallybridge/backend/internal/infrastructure/persistence"
	"github.com/tallybridge/backend/internal/infrastructure/printing"
	"github.com/tallybridge/backend/internal/infrastructure/scheduler"
	"github.com/tallybridge/backend/internal/infrastructure/storage"
	"github.com/tallybridge/backend/internal/infrastructure/tally"
	"github.com/tallybridge/backend/internal/infrastructure/telemetry"
	"github.com/tallybridge/backend/internal/interfaces/http/handler"
	"github.com/tallybridge/backend/internal/interfaces/http/middleware"
	"github.com/tallybridge/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/tallybridge/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Tally Bridge API
//	@version		1.0
//	@description	Sync bridge between an ERP and the Tally accounting package: master existence cache, approval-gated master creation and voucher push.
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/tallybridge/backend
//	@contact.email	support@tallybridge.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@externalDocs.description	OpenAPI
//	@externalDocs.url	https://swagger.io/resources/open-api/

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

	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	// OpenTelemetry providers. Each one degrades to a no-op when telemetry
	// is disabled, so the rest of the wiring never branches on it.
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	loggerProvider, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := loggerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()

	// Bridge zap into OTEL logs when enabled, keeping stdout output intact
	if loggerProvider.IsEnabled() {
		level, perr := zapcore.ParseLevel(cfg.Log.Level)
		if perr != nil {
			level = zapcore.InfoLevel
		}
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    serviceName,
			LoggerProvider: loggerProvider,
			Level:          level,
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore)
	}

	// Continuous profiling (no-op unless enabled)
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Telemetry.ProfilingEnabled,
		ServerAddress:       cfg.Telemetry.PyroscopeAddress,
		ApplicationName:     serviceName,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	log.Info("Starting Tally bridge backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("tally_enabled", cfg.Tally.Enabled),
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

	// Database query tracing via otelgorm
	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:         "postgresql",
			WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Initialize repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	cachedMasterRepo := persistence.NewGormCachedMasterRepository(db.DB)
	syncLogRepo := persistence.NewGormSyncLogRepository(db.DB)
	retryJobRepo := persistence.NewGormRetryJobRepository(db.DB)
	creationRequestRepo := persistence.NewGormCreationRequestRepository(db.DB)
	documentStore := persistence.NewGormDocumentStore(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Outbox publisher makes request lifecycle events part of the same
	// transaction that persists the state change
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)
	creationRequestRepo.SetOutboxEventSaver(outboxPublisher)

	// Redis-backed coordination, falling back to in-process variants for
	// single-instance deployments without Redis
	var locks shared.LockManager
	redisLocks, err := cache.NewRedisLockManager(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, using in-memory creation locks", zap.Error(err))
		locks = cache.NewInMemoryLockManager()
	} else {
		locks = redisLocks
	}

	var blacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, using in-memory token blacklist", zap.Error(err))
		blacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		blacklist = redisBlacklist
	}

	idempotencyFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := idempotencyFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Tally gateway (XML over HTTP). The gateway doubles as the existence
	// oracle for the master cache.
	gateway := tally.NewGateway(cfg.Tally, log)

	// Payload archive: S3-compatible storage when configured, in-memory
	// otherwise so voucher pushes always have somewhere to archive
	var archiveBackend storage.Backend
	if cfg.Storage.Enabled {
		s3Backend, err := storage.NewS3Backend(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize S3 storage backend", zap.Error(err))
		}
		archiveBackend = s3Backend
		log.Info("S3 payload archive enabled", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		archiveBackend = storage.NewMemoryBackend()
	}
	payloadArchive := storage.NewPayloadArchive(archiveBackend, log)

	// PDF renderer for approval dockets
	pdfRenderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: 30 * time.Second,
		Headless:       true,
		DisableGPU:     true,
		NoSandbox:      true,
		Scale:          1.0,
		Logger:         log,
	})
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer func() {
		if err := pdfRenderer.Close(); err != nil {
			log.Error("Error closing PDF renderer", zap.Error(err))
		}
	}()
	docketRenderer := printing.NewDocketRenderer(pdfRenderer)

	// Approval outcome notifications
	notifier := notification.NewLogNotifier(log)

	// Identity services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	userService := identityapp.NewUserService(userRepo, log)

	// Master cache and dependency resolution
	cacheService := mastersapp.NewCacheService(cachedMasterRepo, gateway, log)

	// Sync pipeline: the retry coupler schedules the backoff ladder, the
	// creation router runs approved requests, the voucher service pushes
	// invoices
	retryCoupler := tallysyncapp.NewRetryCoupler(syncLogRepo, retryJobRepo, log)
	creationRouter := tallysyncapp.NewCreationRouter(
		creationRequestRepo,
		syncLogRepo,
		retryJobRepo,
		cachedMasterRepo,
		documentStore,
		gateway,
		locks,
		userRepo,
		notifier,
		retryCoupler,
		cfg.Sync,
		log,
	)
	voucherService := tallysyncapp.NewVoucherService(
		documentStore,
		syncLogRepo,
		retryJobRepo,
		gateway,
		payloadArchive,
		cfg.Tally,
		log,
	)
	retryService := tallysyncapp.NewRetryService(retryJobRepo, creationRouter, voucherService, cfg.Sync.RetryBatchLimit, log)
	connectionService := tallysyncapp.NewConnectionService(gateway, cfg.Tally, log)
	syncLogService := tallysyncapp.NewSyncLogService(syncLogRepo, retryJobRepo)

	// Creation worker pool. When disabled, approvals still land in
	// Approved; only the async creation and manual retry are off.
	var creationScheduler *scheduler.CreationScheduler
	var enqueuer approvalapp.CreationEnqueuer
	if cfg.Scheduler.Enabled {
		creationScheduler, err = scheduler.NewCreationScheduler(scheduler.CreationSchedulerConfig{
			Workers:    cfg.Scheduler.Workers,
			QueueSize:  cfg.Scheduler.QueueSize,
			JobTimeout: cfg.Scheduler.JobTimeout,
		}, creationRouter, log)
		if err != nil {
			log.Fatal("Failed to create creation scheduler", zap.Error(err))
		}
		if err := creationScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start creation scheduler", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := creationScheduler.Stop(ctx); err != nil {
				log.Error("Error stopping creation scheduler", zap.Error(err))
			}
		}()
		enqueuer = creationScheduler
		log.Info("Creation scheduler started",
			zap.Int("workers", cfg.Scheduler.Workers),
			zap.Int("queue_size", cfg.Scheduler.QueueSize),
		)
	}

	// Approval workflow
	requestService := approvalapp.NewRequestService(creationRequestRepo, userRepo, documentStore, notifier, enqueuer, cfg.Tally, log)
	docketService := approvalapp.NewDocketService(creationRequestRepo, docketRenderer, log)
	dependencyService := mastersapp.NewDependencyService(documentStore, cacheService, requestService, cfg.Tally, log)

	// Reporting and outbox administration
	exportService := reportapp.NewExportService(syncLogRepo, cachedMasterRepo)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Business metrics fed from the sync tables
	if cfg.Telemetry.Enabled {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:        meterProvider.Meter("tallybridge"),
			Logger:       log,
			SyncProvider: telemetry.NewGormSyncMetricsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Failed to initialize business metrics", zap.Error(err))
		} else {
			cacheService.SetBusinessMetrics(businessMetrics)
			creationRouter.SetBusinessMetrics(businessMetrics)
			voucherService.SetBusinessMetrics(businessMetrics)
			businessMetrics.StartPeriodicCollection(context.Background(), 5*time.Minute)
			defer businessMetrics.Stop()
		}
	}

	// Initialize event bus and subscribe handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Request lifecycle audit trail, idempotent across outbox redelivery
	auditHandler := approvalapp.NewRequestAuditHandler(log)
	eventBus.Subscribe(event.NewIdempotentHandler(auditHandler, idempotencyStore, log))

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Outbox processor delivers persisted events to the bus
	if cfg.Event.ProcessorEnabled {
		outboxProcessorConfig := event.DefaultOutboxProcessorConfig()
		if cfg.Event.BatchSize > 0 {
			outboxProcessorConfig.BatchSize = cfg.Event.BatchSize
		}
		if cfg.Event.PollInterval > 0 {
			outboxProcessorConfig.PollInterval = cfg.Event.PollInterval
		}
		outboxProcessorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		if cfg.Event.CleanupRetention > 0 {
			outboxProcessorConfig.CleanupRetention = cfg.Event.CleanupRetention
		}
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxProcessorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", outboxProcessorConfig.BatchSize),
			zap.Duration("poll_interval", outboxProcessorConfig.PollInterval),
		)
	}

	// Background loops: cache refresh, retry scan, stale approval sweep
	if cfg.Sync.CacheRefreshEnabled && cfg.Tally.Enabled {
		refreshLoop := scheduler.NewCacheRefreshLoop(cfg.Sync.CacheRefreshInterval, cacheService, log)
		if err := refreshLoop.Start(context.Background()); err != nil {
			log.Fatal("Failed to start cache refresh loop", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := refreshLoop.Stop(ctx); err != nil {
				log.Error("Error stopping cache refresh loop", zap.Error(err))
			}
		}()
		log.Info("Cache refresh loop started", zap.Duration("interval", cfg.Sync.CacheRefreshInterval))
	}

	if cfg.Sync.RetryScanEnabled {
		retryLoop := scheduler.NewRetryScanLoop(cfg.Sync.RetryScanInterval, retryService, log)
		if err := retryLoop.Start(context.Background()); err != nil {
			log.Fatal("Failed to start retry scan loop", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := retryLoop.Stop(ctx); err != nil {
				log.Error("Error stopping retry scan loop", zap.Error(err))
			}
		}()
		log.Info("Retry scan loop started", zap.Duration("interval", cfg.Sync.RetryScanInterval))
	}

	if creationScheduler != nil {
		approvedSweep, err := scheduler.NewApprovedSweep(scheduler.DefaultApprovedSweepConfig(), creationRequestRepo, creationScheduler, log)
		if err != nil {
			log.Fatal("Failed to create approved sweep", zap.Error(err))
		}
		if err := approvedSweep.Start(context.Background()); err != nil {
			log.Fatal("Failed to start approved sweep", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := approvedSweep.Stop(ctx); err != nil {
				log.Error("Error stopping approved sweep", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	masterCacheHandler := handler.NewMasterCacheHandler(cacheService, exportService)
	dependencyHandler := handler.NewDependencyHandler(dependencyService)
	requestHandler := handler.NewRequestHandler(requestService, docketService)
	syncLogHandler := handler.NewSyncLogHandler(syncLogService, exportService)
	retryJobHandler := handler.NewRetryJobHandler(syncLogService, retryService)
	voucherHandler := handler.NewVoucherHandler(voucherService)
	connectionHandler := handler.NewConnectionHandler(connectionService)
	outboxHandler := handler.NewOutboxHandler(outboxService)
	systemHandler := handler.NewSystemHandler()

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
	// 3. Tracing/metrics/profiling - OTEL instrumentation (when enabled)
	// 4. Logger - Log requests
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing())
		engine.Use(middleware.SpanErrorMarker())
		engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("tallybridge/http"), true))
	}
	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling())
	}
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

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
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// JWT authentication for API routes, with public paths skipped
	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	})

	// Swagger documentation endpoint (if enabled)
	if cfg.Swagger.Enabled {
		swaggerProtection := middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, jwtMiddleware)
		engine.GET("/swagger/*any", swaggerProtection, ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(jwtMiddleware)

	// Master existence cache
	cacheRoutes := router.NewDomainGroup("cache", "/cache")
	cacheRoutes.GET("", masterCacheHandler.List)
	cacheRoutes.POST("", masterCacheHandler.Seed)
	cacheRoutes.POST("/refresh", masterCacheHandler.Refresh)
	cacheRoutes.GET("/stats", masterCacheHandler.Stats)
	cacheRoutes.GET("/export", masterCacheHandler.Export)

	// Master lookups
	masterRoutes := router.NewDomainGroup("masters", "/masters")
	masterRoutes.GET("/lookup", masterCacheHandler.Lookup)
	masterRoutes.GET("/smart-lookup", masterCacheHandler.SmartLookup)
	masterRoutes.POST("/batch-check", masterCacheHandler.BatchCheck)

	// Dependency resolution
	dependencyRoutes := router.NewDomainGroup("dependencies", "/dependencies")
	dependencyRoutes.GET("/check", dependencyHandler.Check)
	dependencyRoutes.POST("/requests", dependencyHandler.CreateMissing)

	// ERP-side intake hooks
	hookRoutes := router.NewDomainGroup("hooks", "/hooks")
	hookRoutes.POST("/document-submitted", dependencyHandler.DocumentSubmitted)

	// Creation request workflow. Approval decisions need the approver or
	// admin role; everything else is open to any authenticated user.
	requestRoutes := router.NewDomainGroup("requests", "/requests")
	requestRoutes.POST("", requestHandler.Create)
	requestRoutes.GET("", requestHandler.List)
	requestRoutes.GET("/pending", requestHandler.PendingQueue)
	requestRoutes.GET("/stats", requestHandler.Stats)
	requestRoutes.GET("/:id", requestHandler.GetByID)
	requestRoutes.POST("/:id/approve", middleware.RequireAnyRole("approver", "admin"), requestHandler.Approve)
	requestRoutes.POST("/:id/reject", middleware.RequireAnyRole("approver", "admin"), requestHandler.Reject)
	requestRoutes.POST("/:id/retry", requestHandler.Retry)
	requestRoutes.GET("/:id/docket", requestHandler.Docket)

	// Sync log audit trail
	syncLogRoutes := router.NewDomainGroup("sync-logs", "/sync-logs")
	syncLogRoutes.GET("", syncLogHandler.List)
	syncLogRoutes.GET("/stats", syncLogHandler.Stats)
	syncLogRoutes.GET("/export", syncLogHandler.Export)
	syncLogRoutes.GET("/:id", syncLogHandler.GetByID)

	// Retry queue
	retryRoutes := router.NewDomainGroup("retries", "/retries")
	retryRoutes.GET("", retryJobHandler.List)
	retryRoutes.POST("/process", retryJobHandler.Process)

	// Voucher push
	voucherRoutes := router.NewDomainGroup("vouchers", "/vouchers")
	voucherRoutes.POST("/sales-invoice", voucherHandler.PushSalesInvoice)

	// Tally connection diagnostics
	connectionRoutes := router.NewDomainGroup("connection", "/connection")
	connectionRoutes.GET("/test", connectionHandler.Test)
	connectionRoutes.GET("/checks/:name", connectionHandler.Check)

	// Authentication (login is public via JWT skip paths)
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.GetCurrentUser)
	authRoutes.PUT("/password", authHandler.ChangePassword)

	// User management. Approver listing backs the assignment dropdown and
	// stays open; everything else is admin only.
	userRoutes := router.NewDomainGroup("users", "/users")
	userRoutes.GET("/approvers", userHandler.ListApprovers)
	userRoutes.POST("", middleware.RequireRole("admin"), userHandler.Create)
	userRoutes.GET("", middleware.RequireRole("admin"), userHandler.List)
	userRoutes.GET("/:id", middleware.RequireRole("admin"), userHandler.GetByID)
	userRoutes.PUT("/:id", middleware.RequireRole("admin"), userHandler.Update)
	userRoutes.DELETE("/:id", middleware.RequireRole("admin"), userHandler.Delete)
	userRoutes.POST("/:id/activate", middleware.RequireRole("admin"), userHandler.Activate)
	userRoutes.POST("/:id/deactivate", middleware.RequireRole("admin"), userHandler.Deactivate)
	userRoutes.POST("/:id/reset-password", middleware.RequireRole("admin"), userHandler.ResetPassword)

	// System info plus outbox administration
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/outbox/dead", middleware.RequireRole("admin"), outboxHandler.GetDeadLetterEntries)
	systemRoutes.GET("/outbox/stats", middleware.RequireRole("admin"), outboxHandler.GetStats)
	systemRoutes.GET("/outbox/:id", middleware.RequireRole("admin"), outboxHandler.GetEntry)
	systemRoutes.POST("/outbox/:id/retry", middleware.RequireRole("admin"), outboxHandler.RetryDeadEntry)
	systemRoutes.POST("/outbox/dead/retry-all", middleware.RequireRole("admin"), outboxHandler.RetryAllDeadEntries)

	r.Register(cacheRoutes).
		Register(masterRoutes).
		Register(dependencyRoutes).
		Register(hookRoutes).
		Register(requestRoutes).
		Register(syncLogRoutes).
		Register(retryRoutes).
		Register(voucherRoutes).
		Register(connectionRoutes).
		Register(authRoutes).
		Register(userRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
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
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
