package services

import (
	"context"
	"time"

	"github.com/zahanati/dashboard-backend/internal/domain/entities"
	"github.com/zahanati/dashboard-backend/internal/domain/repositories"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/observability"
)

// AggregationService recomputes the pre-aggregated dashboard rows for a
// date from the canonical visit rows. Recomputation always reads every
// visit for the date, so the aggregates self-heal after any upsert,
// re-sync, or correction.
type AggregationService struct {
	visitRepo repositories.VisitRepository
	statsRepo repositories.StatsRepository
	now       func() time.Time
}

func NewAggregationService(visitRepo repositories.VisitRepository, statsRepo repositories.StatsRepository) *AggregationService {
	return &AggregationService{
		visitRepo: visitRepo,
		statsRepo: statsRepo,
		now:       time.Now,
	}
}

// Recompute rebuilds the daily summary, per-clinic, and per-referral rows
// for date inside the caller's transaction scope.
func (s *AggregationService) Recompute(ctx context.Context, q repositories.Querier, date time.Time) (*entities.DailyDashboardStat, error) {
	visits, err := s.visitRepo.ListByDate(ctx, q, date)
	if err != nil {
		return nil, err
	}

	stat, clinicStats, referralStats := s.aggregate(date, visits)

	if err := s.statsRepo.UpsertDaily(ctx, q, stat); err != nil {
		return nil, err
	}
	if err := s.statsRepo.ReplaceClinicStats(ctx, q, date, clinicStats); err != nil {
		return nil, err
	}
	if err := s.statsRepo.ReplaceReferralStats(ctx, q, date, referralStats); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("date", date.Format("2006-01-02")).
		Int("total_visits", stat.TotalVisits).
		Int("clinics", len(clinicStats)).
		Int("referral_hospitals", len(referralStats)).
		Msg("aggregates recomputed")

	return stat, nil
}

func (s *AggregationService) aggregate(date time.Time, visits []*entities.Visit) (*entities.DailyDashboardStat, []*entities.ClinicStat, []*entities.DailyReferralStat) {
	now := s.now()
	stat := &entities.DailyDashboardStat{
		StatDate:  date,
		CreatedAt: now,
		UpdatedAt: now,
	}

	clinicByCode := map[string]*entities.ClinicStat{}
	referralByCode := map[string]*entities.DailyReferralStat{}
	var clinicOrder, referralOrder []string

	for _, v := range visits {
		stat.TotalVisits++

		if v.Consulted() {
			stat.Consulted++
		} else {
			stat.Pending++
		}

		switch v.VisitType {
		case entities.VisitTypeFollowup:
			stat.Followups++
		default:
			stat.NewVisits++
		}

		if v.IsNHIF == entities.NHIFYes {
			stat.NHIFVisits++
		}
		if v.DeptCode == entities.EmergencyDeptCode {
			stat.Emergency++
		}

		switch ClassifyCategory(v.PatCatg, v.PatCatgNm) {
		case CategoryForeigner:
			stat.Foreigner++
		case CategoryPublic:
			stat.Public++
		case CategoryIPPMPrivate:
			stat.IPPMPrivate++
		case CategoryIPPMCredit:
			stat.IPPMCredit++
		case CategoryCostSharing:
			stat.CostSharing++
		case CategoryNSSF:
			stat.NSSF++
		}

		clinicCode := v.ClinicCode
		cs, seen := clinicByCode[clinicCode]
		if !seen {
			cs = &entities.ClinicStat{
				StatDate:   date,
				ClinicCode: clinicCode,
				ClinicName: unknownClinicName,
			}
			clinicByCode[clinicCode] = cs
			clinicOrder = append(clinicOrder, clinicCode)
		}
		cs.TotalVisits++
		if cs.ClinicName == unknownClinicName && v.ClinicName != "" && v.ClinicName != unknownClinicName {
			cs.ClinicName = v.ClinicName
		}

		if v.RefHosp != nil {
			code := *v.RefHosp
			rs, seen := referralByCode[code]
			if !seen {
				rs = &entities.DailyReferralStat{
					StatDate:    date,
					RefHospCode: code,
				}
				referralByCode[code] = rs
				referralOrder = append(referralOrder, code)
			}
			rs.Count++
			if rs.RefHospName == "" && v.RefHospName != nil {
				rs.RefHospName = *v.RefHospName
			}
		}
	}

	clinicStats := make([]*entities.ClinicStat, 0, len(clinicOrder))
	for _, code := range clinicOrder {
		clinicStats = append(clinicStats, clinicByCode[code])
	}
	referralStats := make([]*entities.DailyReferralStat, 0, len(referralOrder))
	for _, code := range referralOrder {
		referralStats = append(referralStats, referralByCode[code])
	}

	return stat, clinicStats, referralStats
}
