package repositories

import (
	"context"
	"time"

	"github.com/zahanati/dashboard-backend/internal/domain/entities"
)

// VisitRepository persists canonical visit rows.
type VisitRepository interface {
	// BulkUpsert writes visits keyed by the six-field encounter key in
	// bounded chunks, updating every non-key column on conflict. Later rows
	// in the batch win when two normalize to the same key. Returns the
	// number of rows submitted.
	BulkUpsert(ctx context.Context, q Querier, visits []*entities.Visit) (int, error)

	// ListByDate returns all visits whose visit_date equals date.
	ListByDate(ctx context.Context, q Querier, date time.Time) ([]*entities.Visit, error)

	// CountByDate returns the number of visit rows stored for date.
	CountByDate(ctx context.Context, date time.Time) (int, error)
}
