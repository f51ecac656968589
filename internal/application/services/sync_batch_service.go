package services

import (
	"context"
	"sync"
	"time"

	"github.com/zahanati/dashboard-backend/internal/infrastructure/observability"
)

const defaultBatchWorkers = 3

// SyncBatchService runs full per-date syncs for an arbitrary set of dates
// over a small worker pool. Unlike SyncDateRange it parallelizes whole
// dates rather than just fetches, which suits backfilling the gaps found
// by gap detection where dates are sparse and order does not matter.
type SyncBatchService struct {
	syncService *SyncService
	workers     int
}

func NewSyncBatchService(syncService *SyncService, workers int) *SyncBatchService {
	if workers <= 0 {
		workers = defaultBatchWorkers
	}
	return &SyncBatchService{syncService: syncService, workers: workers}
}

// Run syncs every date, at most s.workers at a time, and aggregates the
// outcomes. Dates not yet started when ctx is cancelled are counted as
// skipped, not failed.
func (s *SyncBatchService) Run(ctx context.Context, dates []time.Time) *RangeSyncResult {
	result := &RangeSyncResult{Errors: map[string]string{}}
	if len(dates) == 0 {
		return result
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	work := make(chan time.Time)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for date := range work {
				if ctx.Err() != nil {
					mu.Lock()
					result.SkippedDays++
					mu.Unlock()
					continue
				}

				res, err := s.syncService.SyncForDate(ctx, date)
				mu.Lock()
				if err != nil {
					result.Errors[res.Date] = res.Error
				} else {
					result.TotalSyncedDays++
				}
				mu.Unlock()
			}
		}()
	}

	for _, date := range dates {
		work <- date
	}
	close(work)
	wg.Wait()

	observability.LoggerFromContext(ctx).Info().
		Int("requested", len(dates)).
		Int("synced", result.TotalSyncedDays).
		Int("failed", len(result.Errors)).
		Int("skipped", result.SkippedDays).
		Msg("batch sync completed")

	return result
}
