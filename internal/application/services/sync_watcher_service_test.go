package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/visitapi"
)

// countingVisitClient signals every remote count so tests can observe when
// the watcher polls.
type countingVisitClient struct {
	remote int
	polled chan struct{}
}

func (c *countingVisitClient) FetchVisits(ctx context.Context, date time.Time) ([]visitapi.RawVisit, error) {
	return nil, nil
}

func (c *countingVisitClient) CountForDate(ctx context.Context, date time.Time) (int, error) {
	select {
	case c.polled <- struct{}{}:
	default:
	}
	return c.remote, nil
}

func TestCheckOnce_UpToDateDoesNotSync(t *testing.T) {
	client := &countingVisitClient{remote: 0, polled: make(chan struct{}, 1)}
	repo := newMemoryVisitRepo()

	watcher := NewSyncWatcherService(client, repo, nil, time.Hour)
	watcher.now = func() time.Time { return testNow }

	synced, err := watcher.CheckOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, synced)
}

func TestWatch_ChecksBeforeFirstInterval(t *testing.T) {
	client := &countingVisitClient{remote: 0, polled: make(chan struct{}, 1)}
	repo := newMemoryVisitRepo()

	watcher := NewSyncWatcherService(client, repo, nil, time.Hour)
	watcher.now = func() time.Time { return testNow }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Watch(ctx) }()

	select {
	case <-client.polled:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not poll before the first interval elapsed")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}
