package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/dialect/sql"
)

// ErrNoLoader is returned when a selected table has no loader for the
// dialect of the target driver.
var ErrNoLoader = errors.New("installer: no loader for dialect")

// Registry holds packages of table loaders and installs a selection of
// them. It is safe for concurrent use.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	packages []*entry
	selected []string
}

type entry struct {
	name   string
	tables []string
	// loaders by table, then by dialect.
	loaders map[string]map[string]Loader
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger of the registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds loaders to the named package. A loader replaces a previous
// one for the same table and dialect. Tables keep their registration order.
func (r *Registry) Register(pkg string, loaders ...Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.lookup(pkg)
	if e == nil {
		e = &entry{name: pkg, loaders: make(map[string]map[string]Loader)}
		r.packages = append(r.packages, e)
	}
	for _, l := range loaders {
		byDialect, ok := e.loaders[l.Name()]
		if !ok {
			byDialect = make(map[string]Loader)
			e.loaders[l.Name()] = byDialect
			e.tables = append(e.tables, l.Name())
		}
		byDialect[strings.ToLower(l.Dialect())] = l
	}
}

// RegisterPackage registers the loaders of p under its name.
func (r *Registry) RegisterPackage(p Package) error {
	loaders, err := p.Loaders()
	if err != nil {
		return err
	}
	r.Register(p.Name(), loaders...)
	return nil
}

// Names returns the registered package names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.packages))
	for i, e := range r.packages {
		names[i] = e.name
	}
	return names
}

// Select restricts the following operations to the named packages.
// Without names every registered package is selected.
func (r *Registry) Select(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = slices.Clone(names)
}

// Available returns the loaders of all registered packages written for
// the dialect.
func (r *Registry) Available(dialectName string) []Loader {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var loaders []Loader
	for _, e := range r.packages {
		for _, t := range e.tables {
			if l, ok := e.loaders[t][strings.ToLower(dialectName)]; ok {
				loaders = append(loaders, l)
			}
		}
	}
	return loaders
}

// CanInstall reports whether every table of the selected packages has a
// loader for the dialect.
func (r *Registry) CanInstall(dialectName string) bool {
	_, err := r.plan(dialectName)
	return err == nil
}

// CanUninstall is the same check as CanInstall.
func (r *Registry) CanUninstall(dialectName string) bool {
	return r.CanInstall(dialectName)
}

// Install loads the tables of the selected packages in registration order
// and stops at the first failure.
func (r *Registry) Install(ctx context.Context, drv dialect.Driver, skipContents bool) error {
	loaders, err := r.plan(drv.Dialect())
	if err != nil {
		return err
	}
	for _, l := range loaders {
		r.logger.InfoContext(ctx, "install table", "table", l.Name(), "dialect", l.Dialect(), "skip_contents", skipContents)
		if err := l.Load(ctx, drv, skipContents); err != nil {
			r.logger.ErrorContext(ctx, "install table failed", "table", l.Name(), "error", err)
			return err
		}
	}
	return nil
}

// Uninstall unloads the tables of the selected packages in reverse order
// and stops at the first failure.
func (r *Registry) Uninstall(ctx context.Context, drv dialect.Driver, truncateOnly bool) error {
	loaders, err := r.plan(drv.Dialect())
	if err != nil {
		return err
	}
	for _, l := range slices.Backward(loaders) {
		r.logger.InfoContext(ctx, "uninstall table", "table", l.Name(), "dialect", l.Dialect(), "truncate", truncateOnly)
		if err := l.Unload(ctx, drv, truncateOnly); err != nil {
			r.logger.ErrorContext(ctx, "uninstall table failed", "table", l.Name(), "error", err)
			return err
		}
	}
	return nil
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsInstalled reports whether every table of the selected packages can be
// read from.
func (r *Registry) IsInstalled(ctx context.Context, eq dialect.ExecQuerier) bool {
	for _, t := range r.tables() {
		if !identRe.MatchString(t) {
			return false
		}
		var rows sql.Rows
		if err := eq.Query(ctx, fmt.Sprintf("SELECT 1 FROM %s WHERE 1 = 0", t), []any{}, &rows); err != nil {
			r.logger.DebugContext(ctx, "table missing", "table", t, "error", err)
			return false
		}
		if err := rows.Close(); err != nil {
			return false
		}
	}
	return true
}

// plan returns the loaders of the selected packages for the dialect.
func (r *Registry) plan(dialectName string) ([]Loader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := strings.ToLower(dialectName)
	var loaders []Loader
	for _, e := range r.selection() {
		for _, t := range e.tables {
			l, ok := e.loaders[t][key]
			if !ok {
				return nil, &LoaderError{Loader: e.name + "." + t, Err: fmt.Errorf("%w %q", ErrNoLoader, dialectName)}
			}
			loaders = append(loaders, l)
		}
	}
	return loaders, nil
}

func (r *Registry) tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var tables []string
	for _, e := range r.selection() {
		tables = append(tables, e.tables...)
	}
	return tables
}

// selection must be called with mu held.
func (r *Registry) selection() []*entry {
	if r.selected == nil {
		return r.packages
	}
	var sel []*entry
	for _, e := range r.packages {
		if slices.Contains(r.selected, e.name) {
			sel = append(sel, e)
		}
	}
	return sel
}

func (r *Registry) lookup(name string) *entry {
	for _, e := range r.packages {
		if e.name == name {
			return e
		}
	}
	return nil
}
