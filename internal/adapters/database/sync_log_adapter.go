package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/zahanati/dashboard-backend/internal/domain/entities"
	"github.com/zahanati/dashboard-backend/internal/domain/repositories"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zahanati/dashboard-backend/pkg/errors"
)

// SyncLogAdapter implements SyncLogRepository on PostgreSQL
type SyncLogAdapter struct {
	client  *postgres.Client
	dialect goqu.DialectWrapper
}

// NewSyncLogAdapter creates a new sync log adapter
func NewSyncLogAdapter(client *postgres.Client) repositories.SyncLogRepository {
	return &SyncLogAdapter{
		client:  client,
		dialect: goqu.Dialect("postgres"),
	}
}

// Create inserts a new log row and returns its ID.
func (a *SyncLogAdapter) Create(ctx context.Context, log *entities.SyncLog) (int64, error) {
	query, args, err := a.dialect.
		Insert("sync_logs").
		Prepared(true).
		Rows(goqu.Record{
			"sync_type":      log.SyncType,
			"sync_date":      log.SyncDate.Format(dateLayout),
			"status":         log.Status,
			"records_synced": log.RecordsSynced,
			"started_at":     log.StartedAt,
		}).
		Returning("id").
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build sync log insert", err)
	}

	var id int64
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, apperrors.NewInternalError("failed to create sync log", err)
	}
	return id, nil
}

// MarkSuccess finalizes a log row as SUCCESS with the record count.
func (a *SyncLogAdapter) MarkSuccess(ctx context.Context, id int64, recordsSynced int) error {
	return a.finalize(ctx, id, goqu.Record{
		"status":         entities.SyncStatusSuccess,
		"records_synced": recordsSynced,
		"finished_at":    time.Now(),
	})
}

// MarkFailed finalizes a log row as FAILED with the error message.
func (a *SyncLogAdapter) MarkFailed(ctx context.Context, id int64, message string) error {
	return a.finalize(ctx, id, goqu.Record{
		"status":        entities.SyncStatusFailed,
		"error_message": message,
		"finished_at":   time.Now(),
	})
}

func (a *SyncLogAdapter) finalize(ctx context.Context, id int64, update goqu.Record) error {
	query, args, err := a.dialect.
		Update("sync_logs").
		Prepared(true).
		Set(update).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build sync log update", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update sync log", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NewNotFoundError("sync log not found")
	}
	return nil
}

// ListRecent returns the most recent log rows, newest first.
func (a *SyncLogAdapter) ListRecent(ctx context.Context, limit int) ([]*entities.SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query, args, err := a.dialect.
		Select("id", "sync_type", "sync_date", "status", "records_synced",
			"error_message", "started_at", "finished_at").
		From("sync_logs").
		Prepared(true).
		Order(goqu.I("started_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build sync log query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list sync logs", err)
	}
	defer rows.Close()

	var logs []*entities.SyncLog
	for rows.Next() {
		entry := &entities.SyncLog{}
		var errMsg sql.NullString
		var finishedAt sql.NullTime
		err := rows.Scan(
			&entry.ID,
			&entry.SyncType,
			&entry.SyncDate,
			&entry.Status,
			&entry.RecordsSynced,
			&errMsg,
			&entry.StartedAt,
			&finishedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan sync log", err)
		}
		entry.ErrorMessage = fromNullString(errMsg)
		if finishedAt.Valid {
			t := finishedAt.Time
			entry.FinishedAt = &t
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read sync log rows", err)
	}
	return logs, nil
}
