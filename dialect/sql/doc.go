// Package sql implements the dialect interfaces on top of database/sql and
// reads result sets as record rows.
//
// # Drivers
//
// Open and OpenDB return a Driver for any registered database/sql driver:
//
//	import _ "modernc.org/sqlite"
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db")
//
// Session variables attached to a context with WithVar are set on a pinned
// connection before the statement runs and reset afterwards (Postgres and
// MySQL):
//
//	ctx = sql.WithVar(ctx, "search_path", "tenant_a")
//
// StatsDriver and DebugDriver wrap any dialect.Driver with statistics
// collection and slog debug logging.
//
// # Cursors
//
// A Cursor reads the rows of a query lazily:
//
//	var rows sql.Rows
//	if err := drv.Query(ctx, "SELECT id, name FROM users", []any{}, &rows); err != nil {
//	    return err
//	}
//	cur, err := sql.NewCursor(rows)
//	if err != nil {
//	    return err
//	}
//	defer cur.Close()
//	for cur.Next() {
//	    fmt.Println(cur.Row())
//	}
//	return cur.Err()
//
// Columns reports the name and declared type of every column. Text values
// that drivers return as []byte are turned into strings, except for binary
// columns (BLOB, BYTEA, BINARY, VARBINARY).
//
// # Constraint errors
//
// ConstraintOf classifies unique, foreign key, check and not-null violations
// reported by lib/pq, pgx, go-sql-driver/mysql and modernc.org/sqlite.
package sql
