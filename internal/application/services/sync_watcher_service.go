package services

import (
	"context"
	"time"

	"github.com/zahanati/dashboard-backend/internal/domain/repositories"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/visitapi"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/observability"
)

// SyncWatcherService keeps today's data fresh by polling the upstream
// record count and triggering a full sync whenever the remote count
// exceeds what is stored locally. Counting is one fetch either way, but
// the comparison keeps the database and cache writes off the hot path
// when nothing changed.
type SyncWatcherService struct {
	client      visitapi.Client
	visitRepo   repositories.VisitRepository
	syncService *SyncService
	interval    time.Duration
	now         func() time.Time
}

func NewSyncWatcherService(client visitapi.Client, visitRepo repositories.VisitRepository, syncService *SyncService, interval time.Duration) *SyncWatcherService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SyncWatcherService{
		client:      client,
		visitRepo:   visitRepo,
		syncService: syncService,
		interval:    interval,
		now:         time.Now,
	}
}

// CheckOnce compares today's local and remote counts and syncs when the
// remote has more records. Returns whether a sync was triggered.
func (s *SyncWatcherService) CheckOnce(ctx context.Context) (bool, error) {
	today := truncateToDay(s.now())
	log := observability.LoggerFromContext(ctx)

	local, err := s.visitRepo.CountByDate(ctx, today)
	if err != nil {
		return false, err
	}
	remote, err := s.client.CountForDate(ctx, today)
	if err != nil {
		return false, err
	}

	if remote <= local {
		log.Debug().Int("local", local).Int("remote", remote).Msg("watcher: up to date")
		return false, nil
	}

	log.Info().Int("local", local).Int("remote", remote).Msg("watcher: remote ahead, syncing today")
	if _, err := s.syncService.SyncForDate(ctx, today); err != nil {
		return false, err
	}
	return true, nil
}

// Watch runs CheckOnce immediately and then on the configured interval
// until ctx is cancelled. Check failures are logged and do not stop the
// loop.
func (s *SyncWatcherService) Watch(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log := observability.LoggerFromContext(ctx)
	log.Info().Dur("interval", s.interval).Msg("sync watcher started")

	// First check runs immediately so a fresh process catches up without
	// waiting out a full interval.
	if _, err := s.CheckOnce(ctx); err != nil {
		log.Error().Err(err).Msg("watcher check failed")
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sync watcher stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.CheckOnce(ctx); err != nil {
				log.Error().Err(err).Msg("watcher check failed")
			}
		}
	}
}
