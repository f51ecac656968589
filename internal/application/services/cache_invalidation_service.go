package services

import (
	"context"
	"time"

	"github.com/zahanati/dashboard-backend/internal/domain/providers"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/observability"
)

// CacheInvalidationService drops cached dashboard aggregates after visit
// data changes. Cached keys carry a date range, and any range containing
// the synced date is stale, so invalidation sweeps every range of every
// metric rather than enumerating affected bounds.
type CacheInvalidationService struct {
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

func NewCacheInvalidationService(cache providers.CacheProvider, metrics *observability.Metrics) *CacheInvalidationService {
	return &CacheInvalidationService{cache: cache, metrics: metrics}
}

// InvalidateDate removes every cached aggregate that could include the
// given date. Failures are returned but callers treat them as non-fatal;
// a stale key expires on its own TTL.
func (s *CacheInvalidationService) InvalidateDate(ctx context.Context, date time.Time) error {
	return s.InvalidateAll(ctx)
}

// InvalidateAll removes every cached aggregate across all metrics.
func (s *CacheInvalidationService) InvalidateAll(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	log := observability.LoggerFromContext(ctx)

	var firstErr error
	for _, metric := range AllMetrics() {
		if err := s.cache.DeletePattern(ctx, metric.InvalidationPattern()); err != nil {
			log.Warn().Err(err).Str("metric", string(metric)).Msg("cache invalidation failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	observability.RecordCacheInvalidation(ctx, s.metrics)
	return firstErr
}
