package recordkit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/dialect/sql"
	"github.com/syssam/recordkit/internal/testutil"
	"github.com/syssam/recordkit/mapper"
	"github.com/syssam/recordkit/record"
)

func mockClient(t *testing.T, opts ...recordkit.Option) (*recordkit.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	opts = append([]recordkit.Option{recordkit.WithLogger(testutil.NewTestLogger(t))}, opts...)
	return recordkit.NewClient(sql.OpenDB(dialect.MySQL, db), opts...), mock
}

func compactByID() record.Transformer {
	c, err := record.NewCompactBy([]string{"id"}, record.WithOverwrite())
	if err != nil {
		panic(err)
	}
	return c
}

func TestClient_Select(t *testing.T) {
	client, mock := mockClient(t)
	mock.ExpectQuery("SELECT id, name FROM users WHERE active = \\?").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("Thomas")).
			AddRow(int64(2), []byte("Daniela")))

	it, err := client.Select(context.Background(), "SELECT id, name FROM users WHERE active = ?", true)
	require.NoError(t, err)
	rows, err := record.Collect(it)
	require.NoError(t, err)
	assert.Equal(t, []*record.Row{
		record.Of("id", int64(1), "name", "Thomas"),
		record.Of("id", int64(2), "name", "Daniela"),
	}, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_SelectWithTransformer(t *testing.T) {
	client, mock := mockClient(t, recordkit.WithTransformer(compactByID))
	query := "SELECT id, name FROM users ORDER BY id"
	for range 2 {
		mock.ExpectQuery(query).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(int64(1), "T").
				AddRow(int64(1), "A").
				AddRow(int64(2), "J"))
	}

	want := []*record.Row{
		record.Of("id", int64(1), "name", "A"),
		record.Of("id", int64(2), "name", "J"),
	}
	// Every traversal gets a fresh transformer.
	for range 2 {
		var got []*record.Row
		for r, err := range client.Rows(context.Background(), query) {
			require.NoError(t, err)
			got = append(got, r)
		}
		assert.Equal(t, want, got)
	}
	assert.NotNil(t, client.Transformer())
	client.SetTransformer(nil)
	assert.Nil(t, client.Transformer())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_RowsBreakClosesCursor(t *testing.T) {
	client, mock := mockClient(t)
	mock.ExpectQuery("SELECT n").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1).AddRow(2).AddRow(3)).
		RowsWillBeClosed()

	for r, err := range client.Rows(context.Background(), "SELECT n FROM t") {
		require.NoError(t, err)
		assert.Equal(t, 1, r.Value("n"))
		break
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_SourceFailure(t *testing.T) {
	client, mock := mockClient(t, recordkit.WithTransformer(compactByID))
	broken := errors.New("server has gone away")
	mock.ExpectQuery("SELECT id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(2).RowError(2, broken))
	mock.ExpectQuery("SELECT nope").WillReturnError(errors.New("syntax error"))

	var got []*record.Row
	var gotErr error
	for r, err := range client.Rows(context.Background(), "SELECT id FROM t") {
		if err != nil {
			gotErr = err
			break
		}
		got = append(got, r)
	}
	assert.ErrorIs(t, gotErr, broken)
	assert.Equal(t, []*record.Row{record.Of("id", 1)}, got)

	_, err := client.Select(context.Background(), "SELECT nope")
	require.Error(t, err)
	assert.True(t, recordkit.IsQueryError(err))
	assert.EqualError(t, err, "recordkit: select: dialect/sql: query: syntax error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_SelectOne(t *testing.T) {
	client, mock := mockClient(t)
	mock.ExpectQuery("SELECT name FROM users WHERE id = \\?").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Thomas").AddRow("ignored"))
	mock.ExpectQuery("SELECT name FROM users WHERE id = \\?").WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectQuery("SELECT name FROM users WHERE id = \\?").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Thomas"))
	mock.ExpectQuery("SELECT name FROM users WHERE id = \\?").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Thomas"))

	ctx := context.Background()
	r, err := client.SelectOne(ctx, "SELECT name FROM users WHERE id = ?", 1)
	require.NoError(t, err)
	assert.Equal(t, "Thomas", r.Value("name"))

	_, err = client.SelectOne(ctx, "SELECT name FROM users WHERE id = ?", 9)
	assert.ErrorIs(t, err, recordkit.ErrNotFound)
	assert.True(t, recordkit.IsNotFound(err))

	v, err := client.SelectFieldValue(ctx, "SELECT name FROM users WHERE id = ?", "name", 1)
	require.NoError(t, err)
	assert.Equal(t, "Thomas", v)

	v, err = client.SelectFieldValue(ctx, "SELECT name FROM users WHERE id = ?", "missing", 1)
	require.NoError(t, err)
	assert.Nil(t, v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_SelectStack(t *testing.T) {
	client, mock := mockClient(t)
	for range 2 {
		mock.ExpectQuery("SELECT id, name FROM users").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "a").AddRow(2, "b"))
	}

	ctx := context.Background()
	names, err := client.SelectStack(ctx, "SELECT id, name FROM users", []string{"name"})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, names)

	pairs, err := client.SelectStack(ctx, "SELECT id, name FROM users", []string{"id", "name", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{1, "a", nil}, []any{2, "b", nil}}, pairs)

	_, err = client.SelectStack(ctx, "SELECT 1", nil)
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_Count(t *testing.T) {
	client, mock := mockClient(t)
	mock.ExpectExec("UPDATE users SET active = 0").WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := client.Count(context.Background(), "UPDATE users SET active = 0")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_SelectWithObjects(t *testing.T) {
	client, mock := mockClient(t, recordkit.WithValueMapper(mapper.Default()))
	id := uuid.New()
	mock.ExpectQuery("SELECT").
		WillReturnRows(mock.NewRowsWithColumnDefinition(
			mock.NewColumn("id").OfType("UUID", ""),
			mock.NewColumn("price").OfType("decimal", ""),
			mock.NewColumn("created").OfType("DATETIME", ""),
			mock.NewColumn("note").OfType("VARCHAR", ""),
		).
			AddRow([]byte(id.String()), []byte("12.50"), []byte("2024-03-01 10:20:30"), []byte("x")).
			AddRow([]byte(id.String()), nil, nil, nil))

	it, err := client.SelectWithObjects(context.Background(), "SELECT id, price, created, note FROM items")
	require.NoError(t, err)
	rows, err := record.Collect(it)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, id, rows[0].Value("id"))
	assert.True(t, decimal.RequireFromString("12.5").Equal(rows[0].Value("price").(decimal.Decimal)))
	assert.Equal(t, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC), rows[0].Value("created"))
	assert.Equal(t, "x", rows[0].Value("note"))
	assert.Nil(t, rows[1].Value("price"), "null values are not converted")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_SelectWithObjects_ConvertFailure(t *testing.T) {
	client, mock := mockClient(t, recordkit.WithValueMapper(mapper.NewChain(mapper.UUID{})))
	mock.ExpectQuery("SELECT").
		WillReturnRows(mock.NewRowsWithColumnDefinition(mock.NewColumn("id").OfType("UUID", "")).
			AddRow("not-a-uuid"))

	r, err := client.SelectOneWithObjects(context.Background(), "SELECT id FROM items")
	assert.Nil(t, r)
	require.Error(t, err)
	var qe *recordkit.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "materialize", qe.Op)
	assert.Contains(t, err.Error(), `column "id" as uuid.UUID`)
}

func TestClient_SelectWithObjects_NoMapper(t *testing.T) {
	client, mock := mockClient(t)
	assert.Nil(t, client.ValueMapper())
	mock.ExpectQuery("SELECT").
		WillReturnRows(mock.NewRowsWithColumnDefinition(mock.NewColumn("d").OfType("DATE", "")).
			AddRow("2024-03-01"))

	r, err := client.SelectOneWithObjects(context.Background(), "SELECT d FROM t")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", r.Value("d"))

	m := mapper.Default()
	client.SetValueMapper(m)
	assert.Same(t, m, client.ValueMapper())
}
