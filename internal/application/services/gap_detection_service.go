package services

import (
	"context"
	"time"

	"github.com/zahanati/dashboard-backend/internal/domain/entities"
	"github.com/zahanati/dashboard-backend/internal/domain/repositories"
)

// GapDetectionService finds dates whose daily aggregate is missing or zero,
// the usual symptom of a sync that never ran or ran against an empty feed.
type GapDetectionService struct {
	statsRepo repositories.StatsRepository
	now       func() time.Time
}

func NewGapDetectionService(statsRepo repositories.StatsRepository) *GapDetectionService {
	return &GapDetectionService{statsRepo: statsRepo, now: time.Now}
}

// DetectGaps scans [start, end] and reports every non-future date without a
// committed, non-empty daily summary. Future dates are not gaps; they have
// not happened yet.
func (s *GapDetectionService) DetectGaps(ctx context.Context, start, end time.Time) ([]entities.Gap, error) {
	stats, err := s.statsRepo.GetDailyRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*entities.DailyDashboardStat, len(stats))
	for _, stat := range stats {
		byDate[stat.StatDate.Format("2006-01-02")] = stat
	}

	today := truncateToDay(s.now())
	gaps := []entities.Gap{}
	for _, d := range datesBetween(start, end) {
		if d.After(today) {
			continue
		}
		dateStr := d.Format("2006-01-02")
		stat, ok := byDate[dateStr]
		switch {
		case !ok:
			gaps = append(gaps, entities.Gap{
				Date:   dateStr,
				Reason: "No record found",
				Status: entities.GapStatusMissing,
			})
		case stat.TotalVisits == 0:
			gaps = append(gaps, entities.Gap{
				Date:   dateStr,
				Reason: "Zero visits recorded",
				Status: entities.GapStatusEmpty,
			})
		}
	}

	return gaps, nil
}
