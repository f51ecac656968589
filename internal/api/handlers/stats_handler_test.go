package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zahanati/dashboard-backend/internal/api/handlers"
	"github.com/zahanati/dashboard-backend/internal/domain/entities"
)

type memoryCache struct {
	values map[string][]byte
	sets   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	return c.values[key], nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.values[key] = value
	c.sets++
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	delete(c.values, key)
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.values = map[string][]byte{}
	return nil
}

func (c *memoryCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.values[key]
	return ok, nil
}

func TestGetDailyRange_CachesResult(t *testing.T) {
	statsRepo := &stubStatsRepo{stats: []*entities.DailyDashboardStat{
		{StatDate: time.Date(2020, 8, 1, 0, 0, 0, 0, time.UTC), TotalVisits: 50},
		{StatDate: time.Date(2020, 8, 2, 0, 0, 0, 0, time.UTC), TotalVisits: 75},
	}}
	cache := newMemoryCache()
	handler := handlers.NewStatsHandler(statsRepo, cache)

	url := "/api/v1/stats/daily?start=2020-08-01&end=2020-08-02"

	w := httptest.NewRecorder()
	handler.GetDailyRange(w, httptest.NewRequest("GET", url, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, cache.sets)
	assert.Contains(t, cache.values, "dashboard_stats_2020-08-01_2020-08-02_v4")

	// Second read is served from the cache without another write.
	w = httptest.NewRecorder()
	handler.GetDailyRange(w, httptest.NewRequest("GET", url, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, cache.sets)

	var response struct {
		Stats []*entities.DailyDashboardStat `json:"stats"`
		Count int                            `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 2, response.Count)
}

func TestGetDailyRange_RejectsBadDates(t *testing.T) {
	handler := handlers.NewStatsHandler(&stubStatsRepo{}, nil)

	w := httptest.NewRecorder()
	handler.GetDailyRange(w, httptest.NewRequest("GET", "/api/v1/stats/daily?start=bad&end=2020-08-02", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
