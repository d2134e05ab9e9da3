package installer

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// Directories of a package holding the load and the unload files.
const (
	LoadDir   = "i"
	UnloadDir = "d"
)

// DefaultPattern selects the loader files of a directory package.
const DefaultPattern = "*.sql"

// Package is a named set of table loaders.
type Package interface {
	Name() string
	Loaders() ([]Loader, error)
}

// DirectoryPackage reads a package from a directory tree:
//
//	i/   one <table>.sql per table, creating it
//	d/   one <table>.sql per table, dropping it
//
// Tables missing either file are ignored.
type DirectoryPackage struct {
	name    string
	dialect string
	fsys    fs.FS
	pairs   [][2]string
}

// NewDirectoryPackage scans fsys for a package called name. Files are
// matched with pattern, DefaultPattern if empty.
func NewDirectoryPackage(fsys fs.FS, name, dialect, pattern string) (*DirectoryPackage, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	load, err := matchFiles(fsys, LoadDir, pattern)
	if err != nil {
		return nil, &LoaderError{Loader: name, Err: err}
	}
	unload, err := matchFiles(fsys, UnloadDir, pattern)
	if err != nil {
		return nil, &LoaderError{Loader: name, Err: err}
	}
	p := &DirectoryPackage{name: name, dialect: dialect, fsys: fsys}
	for _, f := range load {
		table := tableName(f)
		for _, g := range unload {
			if tableName(g) == table {
				p.pairs = append(p.pairs, [2]string{f, g})
				break
			}
		}
	}
	return p, nil
}

// OpenDirectory returns the package stored in dir, named after its last
// path element.
func OpenDirectory(dir, dialect string) (*DirectoryPackage, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("installer: %w", err)
	}
	return NewDirectoryPackage(os.DirFS(abs), filepath.Base(abs), dialect, "")
}

func (p *DirectoryPackage) Name() string { return p.name }

// Tables returns the table names in load order.
func (p *DirectoryPackage) Tables() []string {
	names := make([]string, len(p.pairs))
	for i, pair := range p.pairs {
		names[i] = tableName(pair[0])
	}
	return names
}

// Loaders reads the loader files.
func (p *DirectoryPackage) Loaders() ([]Loader, error) {
	loaders := make([]Loader, 0, len(p.pairs))
	for _, pair := range p.pairs {
		l, err := NewFileLoader(p.fsys, pair[0], pair[1], p.dialect)
		if err != nil {
			return nil, err
		}
		loaders = append(loaders, l)
	}
	return loaders, nil
}

// matchFiles returns the regular files of dir matching pattern, sorted by
// name.
func matchFiles(fsys fs.FS, dir, pattern string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := path.Match(pattern, e.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			files = append(files, path.Join(dir, e.Name()))
		}
	}
	return files, nil
}

var _ Package = (*DirectoryPackage)(nil)
