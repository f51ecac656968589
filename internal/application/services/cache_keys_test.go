package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyString(t *testing.T) {
	key := NewCacheKey(
		MetricDashboardStats,
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	)

	assert.Equal(t, "dashboard_stats_2026-08-01_2026-08-31_v4", key.String())
}

func TestMetricInvalidationPattern(t *testing.T) {
	assert.Equal(t, "clinic_breakdown_*", MetricClinicBreakdown.InvalidationPattern())
}

func TestAllMetricsCoverEveryCachedAggregate(t *testing.T) {
	assert.ElementsMatch(t, []Metric{
		MetricDashboardStats,
		MetricClinicBreakdown,
		MetricPieStats,
		MetricCompStats,
		MetricReferralStats,
	}, AllMetrics())
}
