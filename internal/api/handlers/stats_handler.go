package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/zahanati/dashboard-backend/internal/application/services"
	"github.com/zahanati/dashboard-backend/internal/domain/entities"
	"github.com/zahanati/dashboard-backend/internal/domain/providers"
	"github.com/zahanati/dashboard-backend/internal/domain/repositories"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/observability"
)

const statsCacheTTLSeconds = 300

// StatsHandler serves the pre-aggregated dashboard rows. Range reads go
// through the cache under versioned range keys; sync invalidates them.
type StatsHandler struct {
	statsRepo repositories.StatsRepository
	cache     providers.CacheProvider
}

func NewStatsHandler(statsRepo repositories.StatsRepository, cache providers.CacheProvider) *StatsHandler {
	return &StatsHandler{statsRepo: statsRepo, cache: cache}
}

// GetDailyStat returns the daily summary for one date.
func (h *StatsHandler) GetDailyStat(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(r.PathValue("date")))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	stat, err := h.statsRepo.GetDailyByDate(r.Context(), date)
	if err != nil {
		respondWithError(w, statusFromError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, stat)
}

type dailyRangePayload struct {
	Stats []*entities.DailyDashboardStat `json:"stats"`
	Count int                            `json:"count"`
}

// GetDailyRange returns daily summaries for an inclusive date range,
// cached under a versioned key until the next sync touches the data.
func (h *StatsHandler) GetDailyRange(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(dateLayout, strings.TrimSpace(r.URL.Query().Get("start")))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(r.URL.Query().Get("end")))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		respondWithError(w, http.StatusBadRequest, "end precedes start")
		return
	}

	ctx := r.Context()
	key := services.NewCacheKey(services.MetricDashboardStats, start, end).String()

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, key); err == nil && cached != nil {
			var payload dailyRangePayload
			if json.Unmarshal(cached, &payload) == nil {
				respondWithJSON(w, http.StatusOK, payload)
				return
			}
		}
	}

	stats, err := h.statsRepo.GetDailyRange(ctx, start, end)
	if err != nil {
		respondWithError(w, statusFromError(err), err.Error())
		return
	}

	payload := dailyRangePayload{Stats: stats, Count: len(stats)}

	if h.cache != nil {
		if encoded, err := json.Marshal(payload); err == nil {
			if err := h.cache.Set(ctx, key, encoded, statsCacheTTLSeconds); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("stats cache write failed")
			}
		}
	}

	respondWithJSON(w, http.StatusOK, payload)
}
