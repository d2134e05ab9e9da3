package record

import "slices"

// Transformer folds a stream of rows into records.
//
// Transform consumes one row and returns the record it completed, or nil
// when the row was absorbed into the pending record. Flush signals end of
// stream: it returns the pending record (nil if there is none) and leaves
// the transformer empty and ready for a new stream.
//
// A Transformer must not mutate the rows it is given.
type Transformer interface {
	Transform(r *Row) *Row
	Flush() *Row
}

// Option configures the merge policy of CompactBy and StackBy.
type Option func(*folder)

// WithOverwrite makes later rows overwrite earlier values of the same group
// (last write wins) instead of only filling nulls.
func WithOverwrite() Option {
	return func(f *folder) {
		f.ignoreNull = false
	}
}

// WithIgnoreNull sets the merge policy explicitly. true (the default) keeps
// the first non-null value of every field.
func WithIgnoreNull(ignore bool) Option {
	return func(f *folder) {
		f.ignoreNull = ignore
	}
}

// folder holds the state machine shared by the fold-by-key transformers:
// Empty while pending is nil, Accumulating otherwise.
type folder struct {
	keys       []string
	ignoreNull bool
	pending    *Row
}

func newFolder(keys []string, opts []Option) (folder, error) {
	if len(keys) == 0 {
		return folder{}, &ConfigError{Reason: "at least one fold-key field is required"}
	}
	if err := checkFields("fold-key", keys); err != nil {
		return folder{}, err
	}
	f := folder{keys: slices.Clone(keys), ignoreNull: true}
	for _, opt := range opts {
		opt(&f)
	}
	return f, nil
}

// step advances the state machine with one row. init builds the pending
// record of a new group, merge folds a row into the pending record.
func (f *folder) step(r *Row, init func(*Row) *Row, merge func(dst, src *Row)) *Row {
	if r == nil {
		return nil
	}
	if f.pending == nil {
		f.pending = init(r)
		return nil
	}
	if f.sameGroup(r) {
		merge(f.pending, r)
		return nil
	}
	out := f.pending
	f.pending = init(r)
	return out
}

// sameGroup compares fold-key values, absent fields counting as nil.
func (f *folder) sameGroup(r *Row) bool {
	for _, k := range f.keys {
		if !Equal(f.pending.Value(k), r.Value(k)) {
			return false
		}
	}
	return true
}

// Flush returns the pending record and empties the transformer.
func (f *folder) Flush() *Row {
	out := f.pending
	f.pending = nil
	return out
}

// Keys returns the fold-key fields.
func (f *folder) Keys() []string {
	return slices.Clone(f.keys)
}

// IgnoreNull reports whether merging only fills null values.
func (f *folder) IgnoreNull() bool {
	return f.ignoreNull
}

// SetIgnoreNull switches the merge policy for subsequent rows.
func (f *folder) SetIgnoreNull(ignore bool) {
	f.ignoreNull = ignore
}

func (f *folder) addKey(name string) error {
	if name == "" {
		return &ConfigError{Reason: "empty fold-key field name"}
	}
	if !slices.Contains(f.keys, name) {
		f.keys = append(f.keys, name)
	}
	return nil
}

// mergeField applies the scalar merge policy to one field.
func (f *folder) mergeField(dst *Row, name string, v any) {
	if !f.ignoreNull {
		dst.Set(name, v)
		return
	}
	if dst.Value(name) == nil {
		dst.Set(name, v)
	}
}
