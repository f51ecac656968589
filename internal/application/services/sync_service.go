package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zahanati/dashboard-backend/internal/domain/entities"
	"github.com/zahanati/dashboard-backend/internal/domain/providers"
	"github.com/zahanati/dashboard-backend/internal/domain/repositories"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/postgres"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/visitapi"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/observability"
	apperrors "github.com/zahanati/dashboard-backend/pkg/errors"
)

const defaultFanOut = 20

// SyncResult is the outcome of syncing one date.
type SyncResult struct {
	Success bool   `json:"success"`
	Date    string `json:"date"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

// RangeSyncResult is the outcome of syncing a date range. Errors maps the
// formatted date to the failure message for every date that did not commit;
// a failing date never hides the dates that succeeded after it.
type RangeSyncResult struct {
	TotalSyncedDays int               `json:"total_synced_days"`
	SkippedDays     int               `json:"skipped_days,omitempty"`
	Errors          map[string]string `json:"errors"`
}

// SyncService orchestrates the fetch, normalize, upsert, aggregate,
// invalidate pipeline for one date or a range of dates.
type SyncService struct {
	client      visitapi.Client
	db          *postgres.Client
	visitRepo   repositories.VisitRepository
	masterRepo  repositories.MasterRepository
	syncLogRepo repositories.SyncLogRepository
	aggregator  *AggregationService
	invalidator *CacheInvalidationService
	eventBus    providers.EventBus
	metrics     *observability.Metrics
	fanOut      int
	now         func() time.Time
}

func NewSyncService(
	client visitapi.Client,
	db *postgres.Client,
	visitRepo repositories.VisitRepository,
	masterRepo repositories.MasterRepository,
	syncLogRepo repositories.SyncLogRepository,
	aggregator *AggregationService,
	invalidator *CacheInvalidationService,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	fanOut int,
) *SyncService {
	if fanOut <= 0 {
		fanOut = defaultFanOut
	}
	return &SyncService{
		client:      client,
		db:          db,
		visitRepo:   visitRepo,
		masterRepo:  masterRepo,
		syncLogRepo: syncLogRepo,
		aggregator:  aggregator,
		invalidator: invalidator,
		eventBus:    eventBus,
		metrics:     metrics,
		fanOut:      fanOut,
		now:         time.Now,
	}
}

// SyncForDate fetches, stores, and aggregates one date. The returned result
// mirrors what the API reports; the error carries the same failure for
// callers that branch on it.
func (s *SyncService) SyncForDate(ctx context.Context, date time.Time) (*SyncResult, error) {
	dateStr := date.Format("2006-01-02")
	log := observability.LoggerFromContext(ctx)
	started := s.now()

	logID, err := s.startLog(ctx, date)
	if err != nil {
		return &SyncResult{Date: dateStr, Error: errorMessage(err)}, err
	}

	raw, err := s.client.FetchVisits(ctx, date)
	if err != nil {
		return s.failDate(ctx, logID, dateStr, started, err)
	}

	count, err := s.commitDate(ctx, date, raw, NewMasterCache())
	if err != nil {
		return s.failDate(ctx, logID, dateStr, started, err)
	}

	s.finishDate(ctx, logID, date, count, started)
	log.Info().Str("date", dateStr).Int("records", count).Msg("sync completed")
	return &SyncResult{Success: true, Date: dateStr, Count: count}, nil
}

// SyncDateRange syncs every date in [start, end] inclusive. Fetches run
// concurrently in waves of fanOut; commits stay serial so each date's
// transaction is small and the connection pool is never saturated by the
// range itself. Per-date failures are collected, never propagated.
func (s *SyncService) SyncDateRange(ctx context.Context, start, end time.Time) (*RangeSyncResult, error) {
	if end.Before(start) {
		return nil, apperrors.NewValidationError("end date precedes start date")
	}

	dates := datesBetween(start, end)
	result := &RangeSyncResult{Errors: map[string]string{}}
	masters := NewMasterCache()
	log := observability.LoggerFromContext(ctx)

	for offset := 0; offset < len(dates); offset += s.fanOut {
		wave := dates[offset:min(offset+s.fanOut, len(dates))]
		outcomes := s.fetchWave(ctx, wave)

		for i, date := range wave {
			if err := ctx.Err(); err != nil {
				result.SkippedDays += len(dates) - offset - i
				return result, nil
			}

			dateStr := date.Format("2006-01-02")
			started := s.now()

			logID, err := s.startLog(ctx, date)
			if err != nil {
				result.Errors[dateStr] = errorMessage(err)
				continue
			}

			if outcomes[i].err != nil {
				s.failDate(ctx, logID, dateStr, started, outcomes[i].err)
				result.Errors[dateStr] = errorMessage(outcomes[i].err)
				continue
			}

			count, err := s.commitDate(ctx, date, outcomes[i].raw, masters)
			if err != nil {
				s.failDate(ctx, logID, dateStr, started, err)
				result.Errors[dateStr] = errorMessage(err)
				continue
			}

			s.finishDate(ctx, logID, date, count, started)
			result.TotalSyncedDays++
		}
	}

	log.Info().
		Str("start", start.Format("2006-01-02")).
		Str("end", end.Format("2006-01-02")).
		Int("synced_days", result.TotalSyncedDays).
		Int("failed_days", len(result.Errors)).
		Msg("range sync completed")

	return result, nil
}

type fetchOutcome struct {
	raw []visitapi.RawVisit
	err error
}

func (s *SyncService) fetchWave(ctx context.Context, dates []time.Time) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(dates))
	var wg sync.WaitGroup
	for i, date := range dates {
		wg.Add(1)
		go func(i int, date time.Time) {
			defer wg.Done()
			raw, err := s.client.FetchVisits(ctx, date)
			outcomes[i] = fetchOutcome{raw: raw, err: err}
		}(i, date)
	}
	wg.Wait()
	return outcomes
}

// commitDate writes one date's visits, master data, and aggregates in a
// single transaction. The master cache is consulted before the transaction
// and marked only after it commits.
func (s *SyncService) commitDate(ctx context.Context, date time.Time, raw []visitapi.RawVisit, masters *MasterCache) (int, error) {
	batch := NormalizeBatch(raw, s.now())
	if batch.Skipped > 0 {
		observability.LoggerFromContext(ctx).Warn().
			Str("date", date.Format("2006-01-02")).
			Int("skipped", batch.Skipped).
			Msg("records without a visit date dropped")
	}

	newClinics := masters.FilterClinics(batch.Clinics)
	newDepartments := masters.FilterDepartments(batch.Departments)
	newDoctors := masters.FilterDoctors(batch.Doctors)

	count := 0
	err := s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.masterRepo.UpsertClinics(ctx, tx, newClinics); err != nil {
			return err
		}
		if err := s.masterRepo.UpsertDepartments(ctx, tx, newDepartments); err != nil {
			return err
		}
		if err := s.masterRepo.UpsertDoctors(ctx, tx, newDoctors); err != nil {
			return err
		}

		n, err := s.visitRepo.BulkUpsert(ctx, tx, batch.Visits)
		if err != nil {
			return err
		}
		count = n

		_, err = s.aggregator.Recompute(ctx, tx, date)
		return err
	})
	if err != nil {
		return 0, err
	}

	masters.MarkClinics(newClinics)
	masters.MarkDepartments(newDepartments)
	masters.MarkDoctors(newDoctors)
	return count, nil
}

func (s *SyncService) startLog(ctx context.Context, date time.Time) (int64, error) {
	return s.syncLogRepo.Create(ctx, &entities.SyncLog{
		SyncType:  entities.SyncTypeVisits,
		SyncDate:  date,
		Status:    entities.SyncStatusProcessing,
		StartedAt: s.now(),
	})
}

func (s *SyncService) finishDate(ctx context.Context, logID int64, date time.Time, count int, started time.Time) {
	log := observability.LoggerFromContext(ctx)
	dateStr := date.Format("2006-01-02")

	if err := s.syncLogRepo.MarkSuccess(ctx, logID, count); err != nil {
		log.Error().Err(err).Str("date", dateStr).Msg("failed to finalize sync log")
	}

	// Data is committed at this point. Invalidation and events are
	// best-effort; a failure here must not mark the sync failed.
	if err := s.invalidator.InvalidateDate(ctx, date); err != nil {
		log.Warn().Err(err).Str("date", dateStr).Msg("cache invalidation after sync failed")
	}
	s.publishEvent(ctx, entities.SyncEventCompleted, dateStr, count)
	observability.RecordSyncMetric(ctx, s.metrics, dateStr, count, true, s.now().Sub(started))
}

func (s *SyncService) failDate(ctx context.Context, logID int64, dateStr string, started time.Time, cause error) (*SyncResult, error) {
	log := observability.LoggerFromContext(ctx)
	msg := errorMessage(cause)

	if err := s.syncLogRepo.MarkFailed(ctx, logID, msg); err != nil {
		log.Error().Err(err).Str("date", dateStr).Msg("failed to finalize sync log")
	}
	s.publishEvent(ctx, entities.SyncEventFailed, dateStr, 0)
	observability.RecordSyncMetric(ctx, s.metrics, dateStr, 0, false, s.now().Sub(started))

	log.Error().Err(cause).Str("date", dateStr).Msg("sync failed")
	return &SyncResult{Date: dateStr, Error: msg}, cause
}

func (s *SyncService) publishEvent(ctx context.Context, eventType, dateStr string, records int) {
	if s.eventBus == nil {
		return
	}
	event := &entities.SyncEvent{
		ID:         uuid.New().String(),
		EventType:  eventType,
		SyncDate:   dateStr,
		Records:    records,
		OccurredAt: s.now(),
	}
	if err := s.eventBus.Publish(ctx, providers.EventChannelSyncUpdates, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("date", dateStr).Msg("sync event publish failed")
	}
}

// errorMessage prefers the application-level message over the wrapped
// chain so API responses and sync logs stay stable.
func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// datesBetween expands [start, end] into midnight-normalized dates.
func datesBetween(start, end time.Time) []time.Time {
	var dates []time.Time
	for d := truncateToDay(start); !d.After(truncateToDay(end)); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
