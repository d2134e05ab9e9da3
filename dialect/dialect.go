package dialect

import (
	"context"
	"database/sql/driver"
)

// Dialect names, equal to the database/sql driver names they are opened with.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
	// PGX is the pgx stdlib driver name. It speaks the Postgres dialect.
	PGX = "pgx"
)

// ExecQuerier wraps the two database operations.
type ExecQuerier interface {
	// Exec executes a statement that does not return rows. v, if not nil,
	// receives the result and must be a *sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows. v must be a *sql.Rows of the
	// dialect/sql package.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps the operations a Client needs.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	driver.Tx
}

type nopTx struct {
	Driver
}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

// NopTx returns a Tx with a no-op Commit / Rollback methods wrapping
// the given driver. It is used by drivers that cannot run transactions.
func NopTx(d Driver) Tx {
	return nopTx{d}
}
