package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/zahanati/dashboard-backend/internal/domain/entities"
	"github.com/zahanati/dashboard-backend/internal/domain/repositories"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zahanati/dashboard-backend/pkg/errors"
)

// StatsAdapter implements StatsRepository on PostgreSQL
type StatsAdapter struct {
	client  *postgres.Client
	dialect goqu.DialectWrapper
}

// NewStatsAdapter creates a new stats adapter
func NewStatsAdapter(client *postgres.Client) repositories.StatsRepository {
	return &StatsAdapter{
		client:  client,
		dialect: goqu.Dialect("postgres"),
	}
}

// UpsertDaily replaces the daily summary row for stat.StatDate.
func (a *StatsAdapter) UpsertDaily(ctx context.Context, q repositories.Querier, stat *entities.DailyDashboardStat) error {
	record := goqu.Record{
		"stat_date":    stat.StatDate.Format(dateLayout),
		"total_visits": stat.TotalVisits,
		"consulted":    stat.Consulted,
		"pending":      stat.Pending,
		"new_visits":   stat.NewVisits,
		"followups":    stat.Followups,
		"nhif_visits":  stat.NHIFVisits,
		"emergency":    stat.Emergency,
		"foreigner":    stat.Foreigner,
		"public":       stat.Public,
		"ippm_private": stat.IPPMPrivate,
		"ippm_credit":  stat.IPPMCredit,
		"cost_sharing": stat.CostSharing,
		"nssf":         stat.NSSF,
		"updated_at":   time.Now(),
	}

	update := goqu.Record{}
	for _, col := range []string{
		"total_visits", "consulted", "pending", "new_visits", "followups",
		"nhif_visits", "emergency", "foreigner", "public", "ippm_private",
		"ippm_credit", "cost_sharing", "nssf", "updated_at",
	} {
		update[col] = goqu.L("EXCLUDED." + col)
	}

	query, args, err := a.dialect.
		Insert("daily_dashboard_stats").
		Prepared(true).
		Rows(record).
		OnConflict(goqu.DoUpdate("stat_date", update)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build daily stat upsert", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert daily stat", err)
	}
	return nil
}

// ReplaceClinicStats replaces the per-clinic rows for date. Deleting first
// keeps the aggregate a pure function of the day's visits: a clinic that
// disappears from the feed on re-sync disappears from the breakdown too.
func (a *StatsAdapter) ReplaceClinicStats(ctx context.Context, q repositories.Querier, date time.Time, stats []*entities.ClinicStat) error {
	delQuery, delArgs, err := a.dialect.
		Delete("clinic_stats").
		Prepared(true).
		Where(goqu.Ex{"stat_date": date.Format(dateLayout)}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build clinic stat delete", err)
	}
	if _, err := q.ExecContext(ctx, delQuery, delArgs...); err != nil {
		return apperrors.NewInternalError("failed to clear clinic stats", err)
	}

	if len(stats) == 0 {
		return nil
	}

	records := make([]interface{}, 0, len(stats))
	for _, s := range stats {
		records = append(records, goqu.Record{
			"stat_date":    s.StatDate.Format(dateLayout),
			"clinic_code":  s.ClinicCode,
			"clinic_name":  s.ClinicName,
			"total_visits": s.TotalVisits,
		})
	}

	query, args, err := a.dialect.
		Insert("clinic_stats").
		Prepared(true).
		Rows(records...).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build clinic stat insert", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert clinic stats", err)
	}
	return nil
}

// ReplaceReferralStats replaces the per-referral-hospital rows for date.
func (a *StatsAdapter) ReplaceReferralStats(ctx context.Context, q repositories.Querier, date time.Time, stats []*entities.DailyReferralStat) error {
	delQuery, delArgs, err := a.dialect.
		Delete("daily_referral_stats").
		Prepared(true).
		Where(goqu.Ex{"stat_date": date.Format(dateLayout)}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build referral stat delete", err)
	}
	if _, err := q.ExecContext(ctx, delQuery, delArgs...); err != nil {
		return apperrors.NewInternalError("failed to clear referral stats", err)
	}

	if len(stats) == 0 {
		return nil
	}

	records := make([]interface{}, 0, len(stats))
	for _, s := range stats {
		records = append(records, goqu.Record{
			"stat_date":     s.StatDate.Format(dateLayout),
			"ref_hosp_code": s.RefHospCode,
			"ref_hosp_name": s.RefHospName,
			"count":         s.Count,
		})
	}

	query, args, err := a.dialect.
		Insert("daily_referral_stats").
		Prepared(true).
		Rows(records...).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build referral stat insert", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert referral stats", err)
	}
	return nil
}

var dailyStatColumns = []interface{}{
	"id", "stat_date", "total_visits", "consulted", "pending", "new_visits",
	"followups", "nhif_visits", "emergency", "foreigner", "public",
	"ippm_private", "ippm_credit", "cost_sharing", "nssf", "created_at",
	"updated_at",
}

// GetDailyByDate returns the daily summary for date.
func (a *StatsAdapter) GetDailyByDate(ctx context.Context, date time.Time) (*entities.DailyDashboardStat, error) {
	query, args, err := a.dialect.
		Select(dailyStatColumns...).
		From("daily_dashboard_stats").
		Prepared(true).
		Where(goqu.Ex{"stat_date": date.Format(dateLayout)}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build daily stat query", err)
	}

	stat, err := scanDailyStat(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no stats for date %s", date.Format(dateLayout)))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get daily stat", err)
	}
	return stat, nil
}

// GetDailyRange returns daily summaries with stat_date in [start, end].
func (a *StatsAdapter) GetDailyRange(ctx context.Context, start, end time.Time) ([]*entities.DailyDashboardStat, error) {
	query, args, err := a.dialect.
		Select(dailyStatColumns...).
		From("daily_dashboard_stats").
		Prepared(true).
		Where(
			goqu.C("stat_date").Gte(start.Format(dateLayout)),
			goqu.C("stat_date").Lte(end.Format(dateLayout)),
		).
		Order(goqu.I("stat_date").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build daily stat range query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query daily stats", err)
	}
	defer rows.Close()

	var stats []*entities.DailyDashboardStat
	for rows.Next() {
		stat, err := scanDailyStat(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan daily stat", err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read daily stat rows", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDailyStat(row rowScanner) (*entities.DailyDashboardStat, error) {
	stat := &entities.DailyDashboardStat{}
	err := row.Scan(
		&stat.ID,
		&stat.StatDate,
		&stat.TotalVisits,
		&stat.Consulted,
		&stat.Pending,
		&stat.NewVisits,
		&stat.Followups,
		&stat.NHIFVisits,
		&stat.Emergency,
		&stat.Foreigner,
		&stat.Public,
		&stat.IPPMPrivate,
		&stat.IPPMCredit,
		&stat.CostSharing,
		&stat.NSSF,
		&stat.CreatedAt,
		&stat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return stat, nil
}
