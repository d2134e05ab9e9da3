// Package testutil provides test loggers and throwaway databases.
package testutil

import (
	stdsql "database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/dialect/sql"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

var dbSeq atomic.Int64

// OpenSQLite returns a driver over a private in-memory SQLite database,
// initialized with the given statements and closed when the test ends.
// The pool holds a single connection, so a cursor must be closed before the
// next statement runs.
func OpenSQLite(t testing.TB, stmts ...string) *sql.Driver {
	t.Helper()
	dsn := fmt.Sprintf("file:recordkit%d?mode=memory&cache=private", dbSeq.Add(1))
	db, err := stdsql.Open(dialect.SQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return sql.OpenDB(dialect.SQLite, db)
}
