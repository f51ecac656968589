package routes

import (
	"net/http"

	"github.com/zahanati/dashboard-backend/internal/api/handlers"
	"github.com/zahanati/dashboard-backend/internal/api/middleware"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	syncHandler  *handlers.SyncHandler
	statsHandler *handlers.StatsHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	syncHandler *handlers.SyncHandler,
	statsHandler *handlers.StatsHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:          http.NewServeMux(),
		syncHandler:  syncHandler,
		statsHandler: statsHandler,
		metrics:      metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Sync endpoints
	r.mux.HandleFunc("POST /api/v1/sync/range", r.syncHandler.TriggerRangeSync)
	r.mux.HandleFunc("POST /api/v1/sync/{date}", r.syncHandler.TriggerSync)
	r.mux.HandleFunc("GET /api/v1/sync/gaps", r.syncHandler.GetGaps)
	r.mux.HandleFunc("GET /api/v1/sync/logs", r.syncHandler.ListLogs)

	// Stats endpoints
	r.mux.HandleFunc("GET /api/v1/stats/daily", r.statsHandler.GetDailyRange)
	r.mux.HandleFunc("GET /api/v1/stats/daily/{date}", r.statsHandler.GetDailyStat)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
