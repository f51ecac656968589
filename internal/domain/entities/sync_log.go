package entities

import "time"

// Sync log statuses. A log row moves PROCESSING -> SUCCESS or FAILED and is
// never mutated afterwards; a retry creates a new row.
const (
	SyncStatusProcessing = "PROCESSING"
	SyncStatusSuccess    = "SUCCESS"
	SyncStatusFailed     = "FAILED"

	SyncTypeVisits = "visits"
)

// SyncLog is the append-only audit record for one sync attempt.
type SyncLog struct {
	ID            int64      `json:"id"`
	SyncType      string     `json:"sync_type"`
	SyncDate      time.Time  `json:"sync_date"`
	Status        string     `json:"status"`
	RecordsSynced int        `json:"records_synced"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}
