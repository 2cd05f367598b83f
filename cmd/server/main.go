package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appsync "github.com/stockbridge/backend/internal/application/sync"
	"github.com/stockbridge/backend/internal/domain/channel"
	"github.com/stockbridge/backend/internal/infrastructure/cache"
	"github.com/stockbridge/backend/internal/infrastructure/config"
	"github.com/stockbridge/backend/internal/infrastructure/event"
	"github.com/stockbridge/backend/internal/infrastructure/logger"
	"github.com/stockbridge/backend/internal/infrastructure/marketplace"
	"github.com/stockbridge/backend/internal/infrastructure/persistence"
	"github.com/stockbridge/backend/internal/infrastructure/scheduler"
	"github.com/stockbridge/backend/internal/interfaces/http/handler"
	"github.com/stockbridge/backend/internal/interfaces/http/middleware"
	"github.com/stockbridge/backend/internal/interfaces/http/router"
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
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Stockbridge backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected")

	// Redis backs the cross-instance seller sweep lock
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))

	// Repositories
	credentialRepo := persistence.NewGormCredentialRepository(db.DB)
	orderRepo := persistence.NewGormChannelOrderRepository(db.DB)
	listingRepo := persistence.NewGormListingRepository(db.DB)
	runRepo := persistence.NewGormSyncRunRepository(db.DB)
	stockReader := persistence.NewGormStockReader(db.DB)

	// Credential secrets are encrypted at rest
	cipher, err := channel.NewSecretCipher([]byte(cfg.Crypto.CredentialKey))
	if err != nil {
		log.Fatal("Failed to initialize credential cipher", zap.Error(err))
	}

	// Marketplace adapters
	providers := marketplace.NewRegistry()
	if cfg.Marketplace.MercadoLivre.Enabled {
		adapter, err := marketplace.NewMercadoLivreAdapter(&marketplace.MercadoLivreConfig{
			APIBaseURL:        cfg.Marketplace.MercadoLivre.APIBaseURL,
			TimeoutSeconds:    cfg.Marketplace.MercadoLivre.TimeoutSeconds,
			PageSize:          cfg.Marketplace.MercadoLivre.PageSize,
			RequestsPerSecond: cfg.Marketplace.MercadoLivre.RequestsPerSecond,
		})
		if err != nil {
			log.Fatal("Failed to initialize Mercado Livre adapter", zap.Error(err))
		}
		providers.Register(adapter)
		log.Info("Marketplace adapter registered", zap.String("platform", channel.PlatformCodeMercadoLivre.String()))
	}
	if cfg.Marketplace.Shopee.Enabled {
		adapter, err := marketplace.NewShopeeAdapter(&marketplace.ShopeeConfig{
			PartnerID:         cfg.Marketplace.Shopee.PartnerID,
			PartnerKey:        cfg.Marketplace.Shopee.PartnerKey,
			APIBaseURL:        cfg.Marketplace.Shopee.APIBaseURL,
			TimeoutSeconds:    cfg.Marketplace.Shopee.TimeoutSeconds,
			PageSize:          cfg.Marketplace.Shopee.PageSize,
			RequestsPerSecond: cfg.Marketplace.Shopee.RequestsPerSecond,
		})
		if err != nil {
			log.Fatal("Failed to initialize Shopee adapter", zap.Error(err))
		}
		providers.Register(adapter)
		log.Info("Marketplace adapter registered", zap.String("platform", channel.PlatformCodeShopee.String()))
	}

	// Event bus for sync domain events
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	sellerLock := cache.NewRedisSellerLock(redisClient, cfg.Sync.LockTTL)
	syncConfig := appsync.Config{
		OrderLookback:         cfg.Sync.OrderLookback,
		WatermarkOverlap:      cfg.Sync.WatermarkOverlap,
		CredentialConcurrency: cfg.Sync.CredentialConcurrency,
		Retry: appsync.RetryPolicy{
			MaxAttempts: cfg.Sync.RetryAttempts,
			BaseDelay:   cfg.Sync.RetryBaseDelay,
			MaxDelay:    cfg.Sync.RetryMaxDelay,
		},
	}
	orchestrator := appsync.NewOrchestrator(
		credentialRepo,
		orderRepo,
		listingRepo,
		runRepo,
		providers,
		cipher,
		stockReader,
		sellerLock,
		eventBus,
		syncConfig,
		log,
	)
	republishService := appsync.NewRepublishService(listingRepo, credentialRepo, providers, cipher, stockReader, log)
	queryService := appsync.NewQueryService(credentialRepo, orderRepo, listingRepo, runRepo)

	// Scheduled sweeps
	if cfg.Scheduler.Enabled {
		sweepScheduler, err := scheduler.NewSweepScheduler(scheduler.SweepSchedulerConfig{
			Enabled:           cfg.Scheduler.Enabled,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
		}, scheduler.NewOrchestratorExecutor(orchestrator, log), log)
		if err != nil {
			log.Fatal("Failed to initialize sweep scheduler", zap.Error(err))
		}
		if err := sweepScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sweep scheduler", zap.Error(err))
		}
		defer func() {
			if err := sweepScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sweep scheduler", zap.Error(err))
			}
		}()

		sweepTrigger := scheduler.NewSweepTrigger(scheduler.SweepTriggerConfig{
			CheckInterval: cfg.Scheduler.CheckInterval,
			SyncInterval:  cfg.Scheduler.SyncInterval,
		}, sweepScheduler, credentialRepo, log)
		if err := sweepTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sweep trigger", zap.Error(err))
		}
		defer func() {
			if err := sweepTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping sweep trigger", zap.Error(err))
			}
		}()

		log.Info("Sweep scheduler started",
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
			zap.Duration("sync_interval", cfg.Scheduler.SyncInterval),
		)
	}

	// HTTP surface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	sellerConfig := middleware.DefaultSellerConfig()
	sellerConfig.Logger = log
	engine.Use(middleware.SellerMiddlewareWithConfig(sellerConfig))

	syncHandler := handler.NewSyncHandler(orchestrator, republishService, queryService)
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(syncHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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
