package repositories

import (
	"context"
	"time"

	"github.com/zahanati/dashboard-backend/internal/domain/entities"
)

// StatsRepository persists the aggregate rows derived from visits.
type StatsRepository interface {
	// UpsertDaily replaces the daily summary row for stat.StatDate.
	UpsertDaily(ctx context.Context, q Querier, stat *entities.DailyDashboardStat) error

	// ReplaceClinicStats replaces the per-clinic rows for date with the
	// given set. Clinics absent from the set are removed so a re-sync that
	// drops a clinic does not leave a stale row behind.
	ReplaceClinicStats(ctx context.Context, q Querier, date time.Time, stats []*entities.ClinicStat) error

	// ReplaceReferralStats replaces the per-referral-hospital rows for date.
	ReplaceReferralStats(ctx context.Context, q Querier, date time.Time, stats []*entities.DailyReferralStat) error

	// GetDailyByDate returns the daily summary for date, or a not found error.
	GetDailyByDate(ctx context.Context, date time.Time) (*entities.DailyDashboardStat, error)

	// GetDailyRange returns daily summaries with stat_date in [start, end].
	GetDailyRange(ctx context.Context, start, end time.Time) ([]*entities.DailyDashboardStat, error)
}
