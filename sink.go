package recordkit

import (
	"context"
	stdsql "database/sql"
	"iter"
	"regexp"
	"slices"
	"strings"

	"github.com/syssam/recordkit/dialect/sql"
	"github.com/syssam/recordkit/mapper"
)

// Sink executes one statement repeatedly, once per accepted parameter set.
// Each Accept runs synchronously against the database. A Sink is not safe
// for concurrent use.
type Sink struct {
	c       *Client
	ctx     context.Context
	query   string
	objects bool
	seq     int
	closed  bool
}

// Inject returns a sink for query.
func (c *Client) Inject(ctx context.Context, query string) *Sink {
	return &Sink{c: c, ctx: ctx, query: query}
}

// InjectWithObjects returns a sink that serializes every non-scalar
// argument through the active value mapper before execution. Arguments the
// mapper cannot serialize are passed through unchanged.
func (c *Client) InjectWithObjects(ctx context.Context, query string) *Sink {
	return &Sink{c: c, ctx: ctx, query: query, objects: true}
}

// Query returns the statement the sink executes.
func (s *Sink) Query() string { return s.query }

// Count returns the number of executed parameter sets.
func (s *Sink) Count() int { return s.seq }

// Accept executes the statement with args.
func (s *Sink) Accept(args ...any) (sql.Result, error) {
	if s.closed {
		return nil, ErrSinkClosed
	}
	if args == nil {
		args = []any{}
	}
	if s.objects {
		args = s.serialize(args)
	}
	return s.exec(args)
}

// Feed accepts every parameter set of seq in order and stops at the first
// failure. It returns the number of successful executions.
func (s *Sink) Feed(seq iter.Seq[[]any]) (int, error) {
	n := 0
	for args := range seq {
		if _, err := s.Accept(args...); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Close ends the sink. Further Accept calls fail with ErrSinkClosed.
func (s *Sink) Close() error {
	s.closed = true
	return nil
}

func (s *Sink) serialize(args []any) []any {
	m := s.c.ValueMapper()
	if m == nil {
		return args
	}
	out := slices.Clone(args)
	for i, v := range out {
		if mapper.IsScalar(v) {
			continue
		}
		if raw, ok := m.ValueForObject(v); ok {
			out[i] = raw
		}
	}
	return out
}

func (s *Sink) exec(args []any) (sql.Result, error) {
	s.seq++
	s.c.logger.DebugContext(s.ctx, "inject", "query", s.query, "seq", s.seq, "args", len(args))
	var res sql.Result
	if err := s.c.drv.Exec(s.ctx, s.query, args, &res); err != nil {
		s.c.logger.DebugContext(s.ctx, "inject failed", "query", s.query, "seq", s.seq, "error", err)
		return nil, &InjectError{Query: s.query, Seq: s.seq, Err: classify(err)}
	}
	return res, nil
}

// paramRe matches :name placeholders, skipping Postgres :: casts.
var paramRe = regexp.MustCompile(`(?:^|[^:]):([A-Za-z_][A-Za-z0-9_]*)`)

// NamedParams returns the distinct :name placeholders of query in order of
// appearance. Quoted literals, quoted identifiers and comments are skipped.
func NamedParams(query string) []string {
	var names []string
	for _, m := range paramRe.FindAllStringSubmatch(blankQuoted(query), -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	return names
}

// blankQuoted replaces quoted spans and comments of query with spaces.
// A doubled quote inside a quoted span escapes it.
func blankQuoted(query string) string {
	b := []byte(query)
	for i := 0; i < len(b); i++ {
		var stop int
		switch c := b[i]; {
		case c == '\'' || c == '"' || c == '`':
			j := i + 1
			for j < len(b) {
				if b[j] == c {
					if j+1 < len(b) && b[j+1] == c {
						j += 2
						continue
					}
					break
				}
				j++
			}
			stop = j + 1
		case c == '-' && strings.HasPrefix(query[i:], "--"):
			stop = len(b)
			if n := strings.IndexByte(query[i:], '\n'); n >= 0 {
				stop = i + n
			}
		case c == '/' && strings.HasPrefix(query[i:], "/*"):
			stop = len(b)
			if n := strings.Index(query[i+2:], "*/"); n >= 0 {
				stop = i + 2 + n + 2
			}
		default:
			continue
		}
		stop = min(stop, len(b))
		for k := i; k < stop; k++ {
			b[k] = ' '
		}
		i = stop - 1
	}
	return string(b)
}

// Filter decides whether a named value is bound and may replace it.
type Filter func(name string, value any) (any, bool)

// NamedSink executes a statement with :name placeholders once per accepted
// value map.
type NamedSink struct {
	sink   *Sink
	params []string
	filter Filter
}

// InjectFiltered returns a sink binding values by name. Only names that
// appear as :name placeholders in query and pass filter (if not nil) are
// bound. A query without placeholders binds every value filter accepts.
func (c *Client) InjectFiltered(ctx context.Context, query string, filter Filter) *NamedSink {
	return &NamedSink{
		sink:   c.Inject(ctx, query),
		params: NamedParams(query),
		filter: filter,
	}
}

// Params returns the placeholder names of the statement.
func (s *NamedSink) Params() []string { return slices.Clone(s.params) }

// Count returns the number of executed value maps.
func (s *NamedSink) Count() int { return s.sink.Count() }

// Accept executes the statement with the filtered values, bound with
// sql.Named in name order.
func (s *NamedSink) Accept(values map[string]any) (sql.Result, error) {
	if s.sink.closed {
		return nil, ErrSinkClosed
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)
	args := make([]any, 0, len(names))
	for _, name := range names {
		v := values[name]
		if s.filter != nil {
			var ok bool
			if v, ok = s.filter(name, v); !ok {
				continue
			}
		}
		if len(s.params) > 0 && !slices.Contains(s.params, name) {
			continue
		}
		args = append(args, stdsql.Named(name, v))
	}
	return s.sink.exec(args)
}

// Close ends the sink.
func (s *NamedSink) Close() error { return s.sink.Close() }
