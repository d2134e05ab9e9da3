// Package dialect defines the database contracts the recordkit Client runs
// queries through.
//
// # Dialects
//
// A dialect is identified by the database/sql driver name it is opened with:
//
//	dialect.Postgres = "postgres" // github.com/lib/pq
//	dialect.PGX      = "pgx"      // github.com/jackc/pgx/v5/stdlib
//	dialect.MySQL    = "mysql"    // github.com/go-sql-driver/mysql
//	dialect.SQLite   = "sqlite"   // modernc.org/sqlite
//
// # Interfaces
//
// ExecQuerier is the only contract the Client depends on, so a Driver and a
// transaction started from it are interchangeable:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
//
// The Client never begins or commits a transaction itself. To run a
// pipeline inside one, hand it the Tx:
//
//	tx, err := drv.Tx(ctx)
//	if err != nil {
//	    return err
//	}
//	client := recordkit.NewClient(tx)
//
// The dialect/sql sub-package implements these interfaces on top of
// database/sql.
package dialect
