package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zahanati/dashboard-backend/internal/application/services"
	"github.com/zahanati/dashboard-backend/internal/domain/repositories"
)

const dateLayout = "2006-01-02"

// SyncHandler exposes the sync pipeline over HTTP.
type SyncHandler struct {
	syncService *services.SyncService
	gapService  *services.GapDetectionService
	syncLogRepo repositories.SyncLogRepository
}

func NewSyncHandler(
	syncService *services.SyncService,
	gapService *services.GapDetectionService,
	syncLogRepo repositories.SyncLogRepository,
) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		gapService:  gapService,
		syncLogRepo: syncLogRepo,
	}
}

// TriggerSync syncs a single date taken from the path.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(r.PathValue("date")))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	result, err := h.syncService.SyncForDate(r.Context(), date)
	if err != nil {
		respondWithJSON(w, statusFromError(err), result)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// TriggerRangeSync syncs every date between the start and end query
// parameters inclusive. Per-date failures are reported in the body, not as
// an HTTP error; partial progress is still progress.
func (h *SyncHandler) TriggerRangeSync(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	result, err := h.syncService.SyncDateRange(r.Context(), start, end)
	if err != nil {
		respondWithError(w, statusFromError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetGaps reports dates in the range with missing or empty aggregates.
func (h *SyncHandler) GetGaps(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	gaps, err := h.gapService.DetectGaps(r.Context(), start, end)
	if err != nil {
		respondWithError(w, statusFromError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"gaps":  gaps,
		"count": len(gaps),
	})
}

// ListLogs returns recent sync log rows, newest first.
func (h *SyncHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	logs, err := h.syncLogRepo.ListRecent(r.Context(), limit)
	if err != nil {
		respondWithError(w, statusFromError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

func (h *SyncHandler) parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	start, err := time.Parse(dateLayout, strings.TrimSpace(r.URL.Query().Get("start")))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(r.URL.Query().Get("end")))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		respondWithError(w, http.StatusBadRequest, "end precedes start")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
