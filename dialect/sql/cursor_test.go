package sql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/record"
)

func openCursor(t *testing.T, drv *Driver, query string) *Cursor {
	t.Helper()
	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), query, []any{}, rows))
	cur, err := NewCursor(rows)
	require.NoError(t, err)
	return cur
}

func TestCursor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.MySQL, db)

	mock.ExpectQuery("SELECT id, name, avatar FROM users").
		WillReturnRows(mock.NewRowsWithColumnDefinition(
			mock.NewColumn("id").OfType("INT", int64(0)),
			mock.NewColumn("name").OfType("VARCHAR", ""),
			mock.NewColumn("avatar").OfType("BLOB", []byte(nil)),
		).
			AddRow(int64(1), []byte("Alice"), []byte{0x89, 0x50}).
			AddRow(int64(2), nil, nil))

	cur := openCursor(t, drv, "SELECT id, name, avatar FROM users")
	assert.Equal(t, []ColumnMeta{
		{Name: "id", DatabaseType: "INT"},
		{Name: "name", DatabaseType: "VARCHAR"},
		{Name: "avatar", DatabaseType: "BLOB"},
	}, cur.Columns())

	rows, err := record.Collect(cur)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, record.Of("id", int64(1), "name", "Alice", "avatar", []byte{0x89, 0x50}), rows[0])
	assert.Equal(t, record.Of("id", int64(2), "name", nil, "avatar", nil), rows[1])
	assert.False(t, cur.Next(), "an exhausted cursor stays exhausted")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCursor_RowError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.Postgres, db)

	broken := errors.New("connection reset by peer")
	mock.ExpectQuery("SELECT id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow(1).
			AddRow(2).
			RowError(1, broken))

	cur := openCursor(t, drv, "SELECT id FROM t")
	require.True(t, cur.Next())
	assert.False(t, cur.Next())
	assert.ErrorIs(t, cur.Err(), broken)
	assert.NoError(t, cur.Close())
}

func TestCursor_CloseEarly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.SQLite, db)

	mock.ExpectQuery("SELECT n").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1).AddRow(2).AddRow(3).
			CloseError(errors.New("close failed")))

	cur := openCursor(t, drv, "SELECT n FROM t")
	require.True(t, cur.Next())
	assert.ErrorContains(t, cur.Close(), "close failed")
	assert.Nil(t, cur.Row())
	assert.False(t, cur.Next())
	assert.NoError(t, cur.Close(), "closing twice is a no-op")
}

func TestCursor_Adapt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.SQLite, db)

	mock.ExpectQuery("SELECT id, tag").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tag"}).
			AddRow(1, "a").
			AddRow(1, "b").
			AddRow(2, "c"))

	stack, err := record.NewStackBy([]string{"id"}, []string{"tag"})
	require.NoError(t, err)
	rows, err := record.Collect(record.Adapt(openCursor(t, drv, "SELECT id, tag FROM tags ORDER BY id"), stack))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []any{"a", "b"}, rows[0].Value("tag"))
	assert.Equal(t, []any{"c"}, rows[1].Value("tag"))
}

func TestIsBinaryType(t *testing.T) {
	for _, typ := range []string{"BLOB", "bytea", "VARBINARY(16)", "LONGBLOB"} {
		assert.True(t, IsBinaryType(typ), typ)
	}
	for _, typ := range []string{"", "TEXT", "VARCHAR(10)", "JSON"} {
		assert.False(t, IsBinaryType(typ), typ)
	}
}
