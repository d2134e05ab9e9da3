// Package installer creates and drops database tables from SQL packages.
//
// A package is a named set of tables. Every table has one Loader per
// dialect; the Registry picks the loader matching the dialect of the driver
// it installs to:
//
//	reg := installer.NewRegistry()
//	pkg, err := installer.OpenDirectory("schema/blog", dialect.SQLite)
//	if err != nil {
//	    return err
//	}
//	if err := reg.RegisterPackage(pkg); err != nil {
//	    return err
//	}
//	if err := reg.Install(ctx, drv, false); err != nil {
//	    return err
//	}
package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/syssam/recordkit/dialect"
)

// Section markers splitting a loader file. Statements after DataMarker in
// a load file seed the table; statements after TruncateMarker in an unload
// file empty it without dropping it.
const (
	DataMarker     = "/** DATA */"
	TruncateMarker = "/** TRUNCATE */"
)

// Loader creates and drops one table on one dialect.
type Loader interface {
	// Name returns the table name.
	Name() string
	// Dialect returns the dialect the statements are written for.
	Dialect() string
	// Load creates the table. Seed data is skipped if skipContents is set.
	Load(ctx context.Context, eq dialect.ExecQuerier, skipContents bool) error
	// Unload drops the table, or only empties it if truncateOnly is set and
	// the loader knows how to.
	Unload(ctx context.Context, eq dialect.ExecQuerier, truncateOnly bool) error
}

// SQLLoader runs a fixed load and unload statement.
type SQLLoader struct {
	name    string
	dialect string
	load    string
	unload  string
}

// NewSQLLoader returns a loader for table name executing load and unload
// as given.
func NewSQLLoader(name, dialect, load, unload string) *SQLLoader {
	return &SQLLoader{name: name, dialect: dialect, load: load, unload: unload}
}

func (l *SQLLoader) Name() string    { return l.name }
func (l *SQLLoader) Dialect() string { return l.dialect }

// Load executes the load statement.
func (l *SQLLoader) Load(ctx context.Context, eq dialect.ExecQuerier, _ bool) error {
	return l.exec(ctx, eq, l.load)
}

// Unload executes the unload statement.
func (l *SQLLoader) Unload(ctx context.Context, eq dialect.ExecQuerier, _ bool) error {
	return l.exec(ctx, eq, l.unload)
}

func (l *SQLLoader) exec(ctx context.Context, eq dialect.ExecQuerier, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if err := eq.Exec(ctx, stmt, []any{}, nil); err != nil {
		return &LoaderError{Loader: l.name, Err: err}
	}
	return nil
}

// FileLoader reads its statements from a load and an unload file. The load
// file may carry seed statements after DataMarker, the unload file truncate
// statements after TruncateMarker.
type FileLoader struct {
	SQLLoader
	data     string
	truncate string
}

// NewFileLoader reads loadPath and unloadPath from fsys. Both files must
// share the same base name up to the first dot, which names the table.
func NewFileLoader(fsys fs.FS, loadPath, unloadPath, dialect string) (*FileLoader, error) {
	name := tableName(loadPath)
	if name != tableName(unloadPath) {
		return nil, &LoaderError{
			Loader: name,
			Err:    fmt.Errorf("load file %q and unload file %q name different tables", loadPath, unloadPath),
		}
	}
	load, err := fs.ReadFile(fsys, loadPath)
	if err != nil {
		return nil, &LoaderError{Loader: name, Err: err}
	}
	unload, err := fs.ReadFile(fsys, unloadPath)
	if err != nil {
		return nil, &LoaderError{Loader: name, Err: err}
	}
	l := &FileLoader{SQLLoader: SQLLoader{name: name, dialect: dialect}}
	l.load, l.data = split(string(load), DataMarker)
	l.unload, l.truncate = split(string(unload), TruncateMarker)
	return l, nil
}

// Load creates the table and runs the seed section unless skipContents is
// set.
func (l *FileLoader) Load(ctx context.Context, eq dialect.ExecQuerier, skipContents bool) error {
	if err := l.exec(ctx, eq, l.load); err != nil {
		return err
	}
	if skipContents {
		return nil
	}
	return l.exec(ctx, eq, l.data)
}

// Unload drops the table. With truncateOnly and a truncate section only the
// truncate section runs.
func (l *FileLoader) Unload(ctx context.Context, eq dialect.ExecQuerier, truncateOnly bool) error {
	if truncateOnly && l.truncate != "" {
		return l.exec(ctx, eq, l.truncate)
	}
	return l.exec(ctx, eq, l.unload)
}

func split(s, marker string) (head, tail string) {
	head, tail, _ = strings.Cut(s, marker)
	return strings.TrimSpace(head), strings.TrimSpace(tail)
}

func tableName(p string) string {
	name, _, _ := strings.Cut(path.Base(p), ".")
	return name
}

// LoaderError reports a failed loader or package.
type LoaderError struct {
	Loader string // table or package name
	Err    error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("installer: %s: %v", e.Loader, e.Err)
}

func (e *LoaderError) Unwrap() error { return e.Err }

// IsLoaderError returns true if the error is a LoaderError.
func IsLoaderError(err error) bool {
	var e *LoaderError
	return errors.As(err, &e)
}

var (
	_ Loader = (*SQLLoader)(nil)
	_ Loader = (*FileLoader)(nil)
)
