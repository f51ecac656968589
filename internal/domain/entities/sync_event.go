package entities

import "time"

// Sync event types published on the event bus after a date commits.
const (
	SyncEventCompleted = "sync.completed"
	SyncEventFailed    = "sync.failed"
)

// SyncEvent notifies downstream consumers (dashboards, cache warmers) that a
// date's visits and aggregates changed.
type SyncEvent struct {
	ID         string    `json:"id"`
	EventType  string    `json:"event_type"`
	SyncDate   string    `json:"sync_date"`
	Records    int       `json:"records"`
	OccurredAt time.Time `json:"occurred_at"`
}
