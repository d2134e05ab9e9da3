package installer_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/dialect/sql"
	"github.com/syssam/recordkit/installer"
	"github.com/syssam/recordkit/internal/testutil"
)

var blog = fstest.MapFS{
	"i/authors.sql": {Data: []byte(`
CREATE TABLE authors (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
/** DATA */
INSERT INTO authors (id, name) VALUES (1, 'ann'), (2, 'bob');
`)},
	"d/authors.sql": {Data: []byte(`
DROP TABLE authors;
/** TRUNCATE */
DELETE FROM authors;
`)},
	"i/posts.sql": {Data: []byte(`CREATE TABLE posts (id INTEGER PRIMARY KEY, author_id INTEGER REFERENCES authors (id), title TEXT);`)},
	"d/posts.sql": {Data: []byte("DROP TABLE posts;\n/** TRUNCATE */\nDELETE FROM posts;")},
	// No unload file, ignored.
	"i/drafts.sql": {Data: []byte(`CREATE TABLE drafts (id INTEGER);`)},
	"i/README.md":  {Data: []byte(`not a loader`)},
}

func count(t *testing.T, drv *sql.Driver, table string) int64 {
	t.Helper()
	var rows sql.Rows
	require.NoError(t, drv.Query(context.Background(), "SELECT COUNT(*) FROM "+table, []any{}, &rows))
	defer rows.Close()
	require.True(t, rows.Next())
	var n int64
	require.NoError(t, rows.Scan(&n))
	return n
}

func TestDirectoryPackage(t *testing.T) {
	p, err := installer.NewDirectoryPackage(blog, "blog", dialect.SQLite, "")
	require.NoError(t, err)
	assert.Equal(t, "blog", p.Name())
	assert.Equal(t, []string{"authors", "posts"}, p.Tables())

	loaders, err := p.Loaders()
	require.NoError(t, err)
	require.Len(t, loaders, 2)
	assert.Equal(t, "authors", loaders[0].Name())
	assert.Equal(t, dialect.SQLite, loaders[0].Dialect())

	_, err = installer.NewDirectoryPackage(fstest.MapFS{"i/a.sql": {}}, "broken", dialect.SQLite, "")
	require.Error(t, err)
	assert.True(t, installer.IsLoaderError(err))
}

func TestFileLoader_NameMismatch(t *testing.T) {
	_, err := installer.NewFileLoader(blog, "i/authors.sql", "d/posts.sql", dialect.SQLite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "installer: authors:")

	_, err = installer.NewFileLoader(blog, "i/missing.sql", "d/missing.sql", dialect.SQLite)
	assert.True(t, installer.IsLoaderError(err))
}

func TestFileLoader_Sections(t *testing.T) {
	ctx := context.Background()
	drv := testutil.OpenSQLite(t)
	l, err := installer.NewFileLoader(blog, "i/authors.sql", "d/authors.sql", dialect.SQLite)
	require.NoError(t, err)

	require.NoError(t, l.Load(ctx, drv, true))
	assert.Equal(t, int64(0), count(t, drv, "authors"))
	require.NoError(t, l.Unload(ctx, drv, false))

	require.NoError(t, l.Load(ctx, drv, false))
	assert.Equal(t, int64(2), count(t, drv, "authors"))

	require.NoError(t, l.Unload(ctx, drv, true))
	assert.Equal(t, int64(0), count(t, drv, "authors"))

	require.NoError(t, l.Unload(ctx, drv, false))
	require.NoError(t, l.Load(ctx, drv, false))
	assert.Equal(t, int64(2), count(t, drv, "authors"))
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	drv := testutil.OpenSQLite(t)
	reg := installer.NewRegistry(installer.WithLogger(testutil.NewTestLogger(t)))

	p, err := installer.NewDirectoryPackage(blog, "blog", dialect.SQLite, "")
	require.NoError(t, err)
	require.NoError(t, reg.RegisterPackage(p))
	reg.Register("audit",
		installer.NewSQLLoader("audit_log", dialect.SQLite, "CREATE TABLE audit_log (msg TEXT)", "DROP TABLE audit_log"),
		installer.NewSQLLoader("audit_log", dialect.Postgres, "CREATE TABLE audit_log (msg text)", "DROP TABLE audit_log"),
	)
	assert.Equal(t, []string{"blog", "audit"}, reg.Names())
	assert.Len(t, reg.Available(dialect.SQLite), 3)
	assert.Len(t, reg.Available(dialect.Postgres), 1)

	assert.True(t, reg.CanInstall(dialect.SQLite))
	assert.False(t, reg.CanInstall(dialect.Postgres))
	reg.Select("audit")
	assert.True(t, reg.CanInstall(dialect.Postgres))
	assert.True(t, reg.CanUninstall(dialect.Postgres))
	reg.Select()

	assert.False(t, reg.IsInstalled(ctx, drv))
	require.NoError(t, reg.Install(ctx, drv, false))
	assert.True(t, reg.IsInstalled(ctx, drv))
	assert.Equal(t, int64(2), count(t, drv, "authors"))

	reg.Select("blog")
	require.NoError(t, reg.Uninstall(ctx, drv, true))
	assert.True(t, reg.IsInstalled(ctx, drv), "truncate keeps tables")
	assert.Equal(t, int64(0), count(t, drv, "authors"))

	reg.Select()
	require.NoError(t, reg.Uninstall(ctx, drv, false))
	assert.False(t, reg.IsInstalled(ctx, drv))

	require.NoError(t, reg.Install(ctx, drv, true))
	assert.Equal(t, int64(0), count(t, drv, "authors"))
	err = reg.Install(ctx, drv, false)
	require.Error(t, err, "tables exist")
	assert.True(t, installer.IsLoaderError(err))
}

func TestRegistry_NoLoader(t *testing.T) {
	reg := installer.NewRegistry()
	reg.Register("pg", installer.NewSQLLoader("only_pg", dialect.Postgres, "CREATE TABLE only_pg (id int)", "DROP TABLE only_pg"))
	err := reg.Install(context.Background(), testutil.OpenSQLite(t), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, installer.ErrNoLoader)
	assert.EqualError(t, err, `installer: pg.only_pg: installer: no loader for dialect "sqlite"`)
}
