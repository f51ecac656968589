package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zahanati/dashboard-backend/internal/adapters/cache"
	"github.com/zahanati/dashboard-backend/internal/adapters/database"
	"github.com/zahanati/dashboard-backend/internal/adapters/events"
	"github.com/zahanati/dashboard-backend/internal/api/handlers"
	"github.com/zahanati/dashboard-backend/internal/api/routes"
	"github.com/zahanati/dashboard-backend/internal/application/services"
	"github.com/zahanati/dashboard-backend/internal/domain/providers"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/postgres"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/redis"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/visitapi"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/observability"
	"github.com/zahanati/dashboard-backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("OpenTelemetry shutdown failed")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	logger.Info().Msg("PostgreSQL client initialized")

	// Redis is optional; without it the API serves uncached and the sync
	// pipeline skips invalidation and events.
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		defer eventBus.Close()
		logger.Info().Msg("Redis client initialized")
	}

	apiClient := visitapi.NewClient(&cfg.VisitAPI)

	// Initialize adapters
	visitAdapter := database.NewVisitAdapter(pgClient, cfg.Sync.UpsertChunkSize)
	masterAdapter := database.NewMasterAdapter(pgClient)
	statsAdapter := database.NewStatsAdapter(pgClient)
	syncLogAdapter := database.NewSyncLogAdapter(pgClient)

	// Initialize services
	aggregationService := services.NewAggregationService(visitAdapter, statsAdapter)
	invalidationService := services.NewCacheInvalidationService(cacheProvider, metrics)
	syncService := services.NewSyncService(
		apiClient,
		pgClient,
		visitAdapter,
		masterAdapter,
		syncLogAdapter,
		aggregationService,
		invalidationService,
		eventBus,
		metrics,
		cfg.Sync.FanOut,
	)
	gapService := services.NewGapDetectionService(statsAdapter)

	// Initialize handlers
	syncHandler := handlers.NewSyncHandler(syncService, gapService, syncLogAdapter)
	statsHandler := handlers.NewStatsHandler(statsAdapter, cacheProvider)

	router := routes.NewRouter(syncHandler, statsHandler, metrics)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Keep today fresh in the background
	watcher := services.NewSyncWatcherService(apiClient, visitAdapter, syncService, cfg.Sync.WatchInterval)
	go func() {
		if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("sync watcher exited")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
