package providers

import (
	"context"

	"github.com/zahanati/dashboard-backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to sync events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.SyncEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.SyncEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelSyncUpdates is the channel carrying per-date sync outcomes.
const EventChannelSyncUpdates = "sync:updates"
