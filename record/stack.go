package record

import "slices"

// StackBy folds like CompactBy but collects the values of the stack fields
// into ordered lists ([]any). Stacking tag by id:
//
//	{id: 1, tag: a}  -> nil
//	{id: 1, tag: b}  -> nil
//	{id: 2, tag: c}  -> {id: 1, tag: [a b]}
//	Flush            -> {id: 2, tag: [c]}
//
// Every stack field holds a list in every emitted record. A null or missing
// value starts a group with an empty list; later values, nulls and duplicates
// included, are appended as they come.
type StackBy struct {
	folder
	stack []string
	// group holds the stack fields of the pending group.
	group []string
}

// NewStackBy returns a StackBy folding on keys and stacking the stack fields.
// A field cannot be both a fold key and a stack field.
func NewStackBy(keys, stack []string, opts ...Option) (*StackBy, error) {
	f, err := newFolder(keys, opts)
	if err != nil {
		return nil, err
	}
	s := &StackBy{folder: f}
	if err := s.SetStackFields(stack); err != nil {
		return nil, err
	}
	return s, nil
}

// Transform implements Transformer.
func (s *StackBy) Transform(r *Row) *Row {
	return s.step(r, s.assign, s.merge)
}

// StackFields returns the stacked fields.
func (s *StackBy) StackFields() []string {
	return slices.Clone(s.stack)
}

// SetStackFields replaces the stacked fields. It applies to groups started
// after the call; the pending group keeps the fields it started with.
func (s *StackBy) SetStackFields(stack []string) error {
	if err := checkFields("stack", stack); err != nil {
		return err
	}
	for _, name := range stack {
		if slices.Contains(s.keys, name) {
			return &ConfigError{Field: name, Reason: "field is both a fold key and a stack field"}
		}
	}
	s.stack = slices.Clone(stack)
	return nil
}

// AddKey appends a fold-key field. Adding a known field is a no-op.
func (s *StackBy) AddKey(name string) error {
	if slices.Contains(s.stack, name) {
		return &ConfigError{Field: name, Reason: "field is both a fold key and a stack field"}
	}
	return s.addKey(name)
}

func (s *StackBy) assign(r *Row) *Row {
	s.group = s.stack
	out := r.Clone()
	for _, name := range s.group {
		if v := out.Value(name); v != nil {
			out.Set(name, []any{v})
		} else {
			out.Set(name, []any{})
		}
	}
	return out
}

func (s *StackBy) merge(dst, src *Row) {
	src.Range(func(name string, v any) bool {
		if !slices.Contains(s.group, name) {
			s.mergeField(dst, name, v)
			return true
		}
		list, _ := dst.Value(name).([]any)
		dst.Set(name, append(list, v))
		return true
	})
}

var _ Transformer = (*StackBy)(nil)
