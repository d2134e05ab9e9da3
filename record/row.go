package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Row is an ordered mapping from column name to value. Column names are
// unique within a row; setting an existing name replaces its value in place.
//
// The zero value is not usable, create rows with NewRow, Of or FromMap.
type Row struct {
	keys []string
	vals map[string]any
}

// NewRow returns an empty row with room for n columns.
func NewRow(n int) *Row {
	return &Row{
		keys: make([]string, 0, n),
		vals: make(map[string]any, n),
	}
}

// Of builds a row from alternating name/value pairs.
// It panics if pairs has an odd length or a name is not a string.
func Of(pairs ...any) *Row {
	if len(pairs)%2 != 0 {
		panic("record: Of called with an odd number of arguments")
	}
	r := NewRow(len(pairs) / 2)
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("record: Of expects string names, got %T", pairs[i]))
		}
		r.Set(name, pairs[i+1])
	}
	return r
}

// FromMap builds a row from m. Columns are ordered by name.
func FromMap(m map[string]any) *Row {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	r := NewRow(len(names))
	for _, name := range names {
		r.Set(name, m[name])
	}
	return r
}

// Set assigns v to the named column, appending the column if it is new.
func (r *Row) Set(name string, v any) {
	if _, ok := r.vals[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.vals[name] = v
}

// Get returns the value of the named column and whether the column exists.
func (r *Row) Get(name string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.vals[name]
	return v, ok
}

// Value returns the value of the named column, or nil if it is absent.
func (r *Row) Value(name string) any {
	v, _ := r.Get(name)
	return v
}

// Has reports whether the row has the named column.
func (r *Row) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Delete removes the named column. It is a no-op if the column is absent.
func (r *Row) Delete(name string) {
	if _, ok := r.vals[name]; !ok {
		return
	}
	delete(r.vals, name)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == name })
}

// Keys returns the column names in order.
func (r *Row) Keys() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.keys)
}

// Len returns the number of columns.
func (r *Row) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Range calls fn for every column in order until fn returns false.
func (r *Row) Range(fn func(name string, v any) bool) {
	if r == nil {
		return
	}
	for _, k := range r.keys {
		if !fn(k, r.vals[k]) {
			return
		}
	}
}

// Clone returns a copy of the row. List values ([]any) are copied as well,
// other values are shared.
func (r *Row) Clone() *Row {
	if r == nil {
		return nil
	}
	c := &Row{
		keys: make([]string, len(r.keys)),
		vals: make(map[string]any, len(r.vals)),
	}
	copy(c.keys, r.keys)
	for k, v := range r.vals {
		if l, ok := v.([]any); ok {
			v = slices.Clone(l)
		}
		c.vals[k] = v
	}
	return c
}

// Map returns the row as an unordered map.
func (r *Row) Map() map[string]any {
	if r == nil {
		return nil
	}
	m := make(map[string]any, len(r.vals))
	for k, v := range r.vals {
		m[k] = v
	}
	return m
}

// Values returns the column values in order.
func (r *Row) Values() []any {
	if r == nil {
		return nil
	}
	vs := make([]any, len(r.keys))
	for i, k := range r.keys {
		vs[i] = r.vals[k]
	}
	return vs
}

// String returns the row in a compact {name: value} form.
func (r *Row) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range r.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %v", k, r.vals[k])
	}
	sb.WriteByte('}')
	return sb.String()
}

// MarshalJSON encodes the row as a JSON object preserving column order.
func (r *Row) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		v, err := json.Marshal(r.vals[k])
		if err != nil {
			return nil, fmt.Errorf("record: marshal column %q: %w", k, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
