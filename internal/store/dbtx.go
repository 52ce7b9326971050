package store

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql the repositories run over.
// Both *sql.DB and *sql.Tx satisfy it, which lets a mutation and its
// audit entry share one transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
