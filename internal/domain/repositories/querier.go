package repositories

import (
	"context"
	"database/sql"
)

// Querier is the subset of database/sql satisfied by both *sql.DB and
// *sql.Tx. Repository methods that must participate in the per-date sync
// transaction take one explicitly; the orchestrator decides the scope.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
