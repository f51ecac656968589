package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/zahanati/dashboard-backend/internal/adapters/cache"
	"github.com/zahanati/dashboard-backend/internal/adapters/database"
	"github.com/zahanati/dashboard-backend/internal/adapters/events"
	"github.com/zahanati/dashboard-backend/internal/application/services"
	"github.com/zahanati/dashboard-backend/internal/domain/providers"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/postgres"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/redis"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/visitapi"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/observability"
	"github.com/zahanati/dashboard-backend/pkg/config"
)

const dateLayout = "2006-01-02"

func main() {
	var (
		date    string
		start   string
		end     string
		auto    bool
		watch   bool
		gaps    bool
		fill    bool
		workers int
	)

	flag.StringVar(&date, "date", "", "Sync a single date (YYYY-MM-DD)")
	flag.StringVar(&start, "start", "", "Range start date (YYYY-MM-DD)")
	flag.StringVar(&end, "end", "", "Range end date (YYYY-MM-DD)")
	flag.BoolVar(&auto, "auto", false, "Sync yesterday and today")
	flag.BoolVar(&watch, "watch", false, "Poll the feed and sync today when new records appear")
	flag.BoolVar(&gaps, "gaps", false, "Report dates with missing or empty aggregates in -start/-end")
	flag.BoolVar(&fill, "fill", false, "With -gaps, backfill the gaps found")
	flag.IntVar(&workers, "workers", 0, "Worker count for gap backfill (default from SYNC_WORKERS)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-syncer", cfg.Env)
	logger := observability.GetLogger()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, continuing without cache invalidation")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		defer eventBus.Close()
	}

	apiClient := visitapi.NewClient(&cfg.VisitAPI)
	visitAdapter := database.NewVisitAdapter(pgClient, cfg.Sync.UpsertChunkSize)
	masterAdapter := database.NewMasterAdapter(pgClient)
	statsAdapter := database.NewStatsAdapter(pgClient)
	syncLogAdapter := database.NewSyncLogAdapter(pgClient)

	aggregationService := services.NewAggregationService(visitAdapter, statsAdapter)
	invalidationService := services.NewCacheInvalidationService(cacheProvider, nil)
	syncService := services.NewSyncService(
		apiClient,
		pgClient,
		visitAdapter,
		masterAdapter,
		syncLogAdapter,
		aggregationService,
		invalidationService,
		eventBus,
		nil,
		cfg.Sync.FanOut,
	)
	gapService := services.NewGapDetectionService(statsAdapter)

	if workers <= 0 {
		workers = cfg.Sync.Workers
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startedAt := time.Now()

	switch {
	case watch:
		watcher := services.NewSyncWatcherService(apiClient, visitAdapter, syncService, cfg.Sync.WatchInterval)
		if err := watcher.Watch(ctx); err != nil && ctx.Err() == nil {
			logger.Fatal().Err(err).Msg("watcher failed")
		}

	case gaps:
		s, e := mustParseRange(logger, start, end)
		found, err := gapService.DetectGaps(ctx, s, e)
		if err != nil {
			logger.Fatal().Err(err).Msg("gap detection failed")
		}
		for _, g := range found {
			logger.Info().Str("date", g.Date).Str("status", g.Status).Str("reason", g.Reason).Msg("gap")
		}
		logger.Info().Int("gaps", len(found)).Msg("gap scan complete")

		if fill && len(found) > 0 {
			dates := make([]time.Time, 0, len(found))
			for _, g := range found {
				d, err := time.Parse(dateLayout, g.Date)
				if err != nil {
					continue
				}
				dates = append(dates, d)
			}
			batch := services.NewSyncBatchService(syncService, workers)
			result := batch.Run(ctx, dates)
			logResult(logger, result, startedAt)
		}

	case auto:
		// Daily catch-up: yesterday first so late edits land, then today.
		today := time.Now()
		result, err := syncService.SyncDateRange(ctx, today.AddDate(0, 0, -1), today)
		if err != nil {
			logger.Fatal().Err(err).Msg("auto sync failed")
		}
		logResult(logger, result, startedAt)

	case date != "":
		d, err := time.Parse(dateLayout, date)
		if err != nil {
			logger.Fatal().Str("date", date).Msg("date must be YYYY-MM-DD")
		}
		result, err := syncService.SyncForDate(ctx, d)
		if err != nil {
			logger.Fatal().Err(err).Str("date", date).Msg("sync failed")
		}
		logger.Info().Str("date", result.Date).Int("records", result.Count).Dur("took", time.Since(startedAt)).Msg("sync complete")

	case start != "" || end != "":
		s, e := mustParseRange(logger, start, end)
		result, err := syncService.SyncDateRange(ctx, s, e)
		if err != nil {
			logger.Fatal().Err(err).Msg("range sync failed")
		}
		logResult(logger, result, startedAt)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func mustParseRange(logger *zerolog.Logger, start, end string) (time.Time, time.Time) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		logger.Fatal().Str("start", start).Msg("start must be YYYY-MM-DD")
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		logger.Fatal().Str("end", end).Msg("end must be YYYY-MM-DD")
	}
	if e.Before(s) {
		logger.Fatal().Msg("end precedes start")
	}
	return s, e
}

func logResult(logger *zerolog.Logger, result *services.RangeSyncResult, startedAt time.Time) {
	for d, msg := range result.Errors {
		logger.Error().Str("date", d).Str("error", msg).Msg("date failed")
	}
	logger.Info().
		Int("synced_days", result.TotalSyncedDays).
		Int("failed_days", len(result.Errors)).
		Int("skipped_days", result.SkippedDays).
		Dur("took", time.Since(startedAt)).
		Msg("done")
}
