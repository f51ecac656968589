package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cacheSpy struct {
	patterns []string
}

func (c *cacheSpy) Get(ctx context.Context, key string) ([]byte, error) { return nil, nil }
func (c *cacheSpy) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	return nil
}
func (c *cacheSpy) Delete(ctx context.Context, key string) error { return nil }
func (c *cacheSpy) DeletePattern(ctx context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	return nil
}
func (c *cacheSpy) Exists(ctx context.Context, key string) (bool, error) { return false, nil }

func TestInvalidateDate_SweepsEveryMetric(t *testing.T) {
	spy := &cacheSpy{}
	svc := NewCacheInvalidationService(spy, nil)

	err := svc.InvalidateDate(context.Background(), time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"dashboard_stats_*",
		"clinic_breakdown_*",
		"pie_stats_*",
		"comp_stats_*",
		"referral_stats_*",
	}, spy.patterns)
}

func TestInvalidateAll_NilCacheIsNoop(t *testing.T) {
	svc := NewCacheInvalidationService(nil, nil)
	assert.NoError(t, svc.InvalidateAll(context.Background()))
}
