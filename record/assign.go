package record

import (
	"fmt"
	"slices"
)

// AssignBy folds a whole key/value stream into a single record. Every row
// carrying a non-null key field and name field contributes
// record[key] = name. Keys listed as multi-valued collect their values into
// a list instead. Flush emits the record, nil if nothing was assigned.
//
// Reading a settings table:
//
//	{key: title, value: Home}   -> nil
//	{key: tag,   value: a}      -> nil
//	{key: tag,   value: b}      -> nil
//	Flush                       -> {title: Home, tag: [a b]}   (tag multi-valued)
type AssignBy struct {
	keyField  string
	nameField string
	multi     []string
	pending   *Row
}

// NewAssignBy returns an AssignBy reading keys from keyField and values from
// nameField.
func NewAssignBy(keyField, nameField string, multi ...string) (*AssignBy, error) {
	if err := checkFields("assign", []string{keyField, nameField}); err != nil {
		return nil, err
	}
	return &AssignBy{keyField: keyField, nameField: nameField, multi: slices.Clone(multi)}, nil
}

// KeyField returns the field holding record keys.
func (a *AssignBy) KeyField() string { return a.keyField }

// NameField returns the field holding record values.
func (a *AssignBy) NameField() string { return a.nameField }

// MultiValueKeys returns the keys collected into lists.
func (a *AssignBy) MultiValueKeys() []string { return slices.Clone(a.multi) }

// Transform implements Transformer. It never emits before Flush.
func (a *AssignBy) Transform(r *Row) *Row {
	k, v := normalize(r.Value(a.keyField)), r.Value(a.nameField)
	if k == nil || v == nil {
		return nil
	}
	if a.pending == nil {
		a.pending = NewRow(8)
	}
	key := fmt.Sprint(k)
	if slices.Contains(a.multi, key) {
		list, _ := a.pending.Value(key).([]any)
		a.pending.Set(key, append(list, v))
	} else {
		a.pending.Set(key, v)
	}
	return nil
}

// Flush implements Transformer.
func (a *AssignBy) Flush() *Row {
	out := a.pending
	a.pending = nil
	return out
}

var _ Transformer = (*AssignBy)(nil)
