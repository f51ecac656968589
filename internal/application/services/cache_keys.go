package services

import (
	"fmt"
	"time"
)

// CacheVersion is bumped whenever the shape of a cached payload changes,
// orphaning every key written under the previous version.
const CacheVersion = 4

// Metric names one cacheable dashboard aggregate.
type Metric string

const (
	MetricDashboardStats  Metric = "dashboard_stats"
	MetricClinicBreakdown Metric = "clinic_breakdown"
	MetricPieStats        Metric = "pie_stats"
	MetricCompStats       Metric = "comp_stats"
	MetricReferralStats   Metric = "referral_stats"
)

// AllMetrics lists every metric whose cached ranges must be dropped when
// underlying visit data changes.
func AllMetrics() []Metric {
	return []Metric{
		MetricDashboardStats,
		MetricClinicBreakdown,
		MetricPieStats,
		MetricCompStats,
		MetricReferralStats,
	}
}

// InvalidationPattern matches every cached range of the metric regardless
// of bounds or version.
func (m Metric) InvalidationPattern() string {
	return string(m) + "_*"
}

// CacheKey identifies one cached aggregate over an inclusive date range.
type CacheKey struct {
	Metric  Metric
	Start   time.Time
	End     time.Time
	Version int
}

func NewCacheKey(metric Metric, start, end time.Time) CacheKey {
	return CacheKey{Metric: metric, Start: start, End: end, Version: CacheVersion}
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s_%s_%s_v%d",
		k.Metric,
		k.Start.Format("2006-01-02"),
		k.End.Format("2006-01-02"),
		k.Version,
	)
}
