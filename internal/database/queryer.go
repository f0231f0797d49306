package database

import (
	"context"
	"database/sql"
)

// Queryer is the query surface shared by *sql.DB and *sql.Tx.
// Repository methods take a Queryer so the same code runs standalone
// or inside a transaction opened by a service.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	_ Queryer = (*sql.DB)(nil)
	_ Queryer = (*sql.Tx)(nil)
)
