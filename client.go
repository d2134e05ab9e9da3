package recordkit

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/dialect/sql"
	"github.com/syssam/recordkit/mapper"
	"github.com/syssam/recordkit/record"
)

// Client runs queries through a dialect.ExecQuerier and returns their
// results as record iterators.
//
// The value mapper and the transformer factory may be changed while the
// client is in use. A change applies to streams opened afterwards.
type Client struct {
	drv    dialect.ExecQuerier
	owned  bool
	logger *slog.Logger

	mu             sync.RWMutex
	mapper         mapper.ValueMapper
	newTransformer func() record.Transformer
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithValueMapper sets the value mapper used by the WithObjects methods.
func WithValueMapper(m mapper.ValueMapper) Option {
	return func(c *Client) {
		c.mapper = m
	}
}

// WithTransformer sets the transformer factory. Every stream returned by
// the client is folded by a fresh transformer from f.
func WithTransformer(f func() record.Transformer) Option {
	return func(c *Client) {
		c.newTransformer = f
	}
}

// NewClient returns a client running its statements through drv. drv may be
// a dialect.Driver or a transaction started from one.
func NewClient(drv dialect.ExecQuerier, opts ...Option) *Client {
	c := &Client{
		drv:    drv,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open opens a database with a registered database/sql driver and returns a
// client owning the connection.
func Open(driverName, dsn string, opts ...Option) (*Client, error) {
	drv, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	c := NewClient(drv, opts...)
	c.owned = true
	return c, nil
}

// Close closes the connection if the client opened it.
func (c *Client) Close() error {
	if !c.owned {
		return nil
	}
	if d, ok := c.drv.(dialect.Driver); ok {
		return d.Close()
	}
	return nil
}

// Driver returns the underlying driver.
func (c *Client) Driver() dialect.ExecQuerier { return c.drv }

// ValueMapper returns the active value mapper, nil if none is set.
func (c *Client) ValueMapper() mapper.ValueMapper {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mapper
}

// SetValueMapper replaces the active value mapper. nil disables conversion.
func (c *Client) SetValueMapper(m mapper.ValueMapper) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mapper = m
}

// Transformer returns the transformer factory, nil if none is set.
func (c *Client) Transformer() func() record.Transformer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.newTransformer
}

// SetTransformer replaces the transformer factory. nil disables folding.
func (c *Client) SetTransformer(f func() record.Transformer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.newTransformer = f
}

// Select runs query and returns its rows lazily. The caller must Close the
// iterator.
func (c *Client) Select(ctx context.Context, query string, args ...any) (record.Iterator, error) {
	cur, err := c.cursor(ctx, "select", query, args)
	if err != nil {
		return nil, err
	}
	return c.fold(cur), nil
}

// SelectWithObjects is like Select but converts column values into typed
// values through the active value mapper.
func (c *Client) SelectWithObjects(ctx context.Context, query string, args ...any) (record.Iterator, error) {
	cur, err := c.cursor(ctx, "select", query, args)
	if err != nil {
		return nil, err
	}
	m := c.ValueMapper()
	if m == nil {
		return c.fold(cur), nil
	}
	return c.fold(materialize(cur, query, m)), nil
}

// Rows returns the rows of query as a sequence. The cursor is closed when
// the sequence ends or the loop breaks. A failure is yielded as the last
// element.
func (c *Client) Rows(ctx context.Context, query string, args ...any) iter.Seq2[*record.Row, error] {
	return c.seq(func() (record.Iterator, error) { return c.Select(ctx, query, args...) })
}

// RowsWithObjects is the sequence form of SelectWithObjects.
func (c *Client) RowsWithObjects(ctx context.Context, query string, args ...any) iter.Seq2[*record.Row, error] {
	return c.seq(func() (record.Iterator, error) { return c.SelectWithObjects(ctx, query, args...) })
}

// SelectOne returns the first record of query, or ErrNotFound.
func (c *Client) SelectOne(ctx context.Context, query string, args ...any) (*record.Row, error) {
	it, err := c.Select(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return first(it, query)
}

// SelectOneWithObjects returns the first record of query with typed values,
// or ErrNotFound.
func (c *Client) SelectOneWithObjects(ctx context.Context, query string, args ...any) (*record.Row, error) {
	it, err := c.SelectWithObjects(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return first(it, query)
}

// SelectFieldValue returns the value of field in the first record of
// query. A missing field yields nil.
func (c *Client) SelectFieldValue(ctx context.Context, query, field string, args ...any) (any, error) {
	r, err := c.SelectOne(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return r.Value(field), nil
}

// SelectStack collects fields from every record of query. With a single
// field the result holds its values, otherwise one []any per record with
// the values in field order. Missing fields yield nil.
func (c *Client) SelectStack(ctx context.Context, query string, fields []string, args ...any) ([]any, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("recordkit: select stack: no field given")
	}
	var stack []any
	for r, err := range c.Rows(ctx, query, args...) {
		if err != nil {
			return nil, err
		}
		if len(fields) == 1 {
			stack = append(stack, r.Value(fields[0]))
			continue
		}
		vals := make([]any, len(fields))
		for i, f := range fields {
			vals[i] = r.Value(f)
		}
		stack = append(stack, vals)
	}
	return stack, nil
}

// Count executes query and returns the number of affected rows.
func (c *Client) Count(ctx context.Context, query string, args ...any) (int64, error) {
	c.logger.DebugContext(ctx, "count", "query", query, "args", len(args))
	var res sql.Result
	if err := c.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, &QueryError{Op: "count", Query: query, Err: classify(err)}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &QueryError{Op: "count", Query: query, Err: err}
	}
	return n, nil
}

func (c *Client) cursor(ctx context.Context, op, query string, args []any) (*sql.Cursor, error) {
	c.logger.DebugContext(ctx, op, "query", query, "args", len(args))
	if args == nil {
		args = []any{}
	}
	var rows sql.Rows
	if err := c.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, &QueryError{Op: op, Query: query, Err: err}
	}
	cur, err := sql.NewCursor(rows)
	if err != nil {
		return nil, &QueryError{Op: op, Query: query, Err: err}
	}
	return cur, nil
}

func (c *Client) fold(it record.Iterator) record.Iterator {
	f := c.Transformer()
	if f == nil {
		return it
	}
	return record.Adapt(it, f())
}

func (c *Client) seq(open func() (record.Iterator, error)) iter.Seq2[*record.Row, error] {
	return func(yield func(*record.Row, error) bool) {
		it, err := open()
		if err != nil {
			yield(nil, err)
			return
		}
		defer it.Close()
		for r, err := range record.All(it) {
			if !yield(r, err) {
				return
			}
		}
	}
}

func first(it record.Iterator, query string) (*record.Row, error) {
	defer it.Close()
	if it.Next() {
		return it.Row(), nil
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return nil, &QueryError{Op: "select one", Query: query, Err: ErrNotFound}
}

// materialize converts the values of every column the mapper resolves a
// converter for. Null values are kept.
func materialize(cur *sql.Cursor, query string, m mapper.ValueMapper) record.Iterator {
	cols := cur.Columns()
	convs := make(map[string]*mapper.Converter, len(cols))
	for _, col := range cols {
		if col.DatabaseType == "" {
			continue
		}
		if conv := m.ConverterForType(mapper.NormalizeType(col.DatabaseType)); conv != nil {
			convs[col.Name] = conv
		}
	}
	if len(convs) == 0 {
		return cur
	}
	return record.Map(cur, func(r *record.Row) (*record.Row, error) {
		for name, conv := range convs {
			raw := r.Value(name)
			if raw == nil {
				continue
			}
			v, err := conv.Convert(raw)
			if err != nil {
				return nil, &QueryError{
					Op:    "materialize",
					Query: query,
					Err:   fmt.Errorf("column %q as %s: %w", name, conv.Name, err),
				}
			}
			r.Set(name, v)
		}
		return r, nil
	})
}
