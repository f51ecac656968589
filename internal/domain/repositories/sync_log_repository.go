package repositories

import (
	"context"

	"github.com/zahanati/dashboard-backend/internal/domain/entities"
)

// SyncLogRepository records sync attempts. Log rows are written outside the
// per-date transaction so a rolled-back date still leaves its FAILED trace.
type SyncLogRepository interface {
	// Create inserts a new log row and returns its ID.
	Create(ctx context.Context, log *entities.SyncLog) (int64, error)

	// MarkSuccess finalizes a log row as SUCCESS with the record count.
	MarkSuccess(ctx context.Context, id int64, recordsSynced int) error

	// MarkFailed finalizes a log row as FAILED with the error message.
	MarkFailed(ctx context.Context, id int64, message string) error

	// ListRecent returns the most recent log rows, newest first.
	ListRecent(ctx context.Context, limit int) ([]*entities.SyncLog, error)
}
