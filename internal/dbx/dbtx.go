// Package dbx holds the minimal database/sql surface repositories depend on.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is implemented by *sql.DB, *sql.Tx and *sql.Conn.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
