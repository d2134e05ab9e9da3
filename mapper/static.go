package mapper

import (
	"maps"
	"sync"
)

// Callback adapts two functions to a ValueMapper. A nil function never
// matches.
type Callback struct {
	TypeFunc  func(typeName string) *Converter
	ValueFunc func(v any) (any, bool)
}

// ConverterForType implements ValueMapper.
func (c *Callback) ConverterForType(typeName string) *Converter {
	if c.TypeFunc == nil {
		return nil
	}
	return c.TypeFunc(typeName)
}

// ValueForObject implements ValueMapper.
func (c *Callback) ValueForObject(v any) (any, bool) {
	if c.ValueFunc == nil {
		return nil, false
	}
	return c.ValueFunc(v)
}

// Static resolves converters from a fixed type name table. It never
// serializes values.
type Static struct {
	mu    sync.RWMutex
	table map[string]*Converter
}

// NewStatic returns a Static mapper over table. Type names are normalized.
func NewStatic(table map[string]*Converter) *Static {
	s := &Static{table: make(map[string]*Converter, len(table))}
	for name, conv := range table {
		s.Set(name, conv)
	}
	return s
}

// Set registers conv for typeName. A nil conv removes the entry.
func (s *Static) Set(typeName string, conv *Converter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		s.table = make(map[string]*Converter)
	}
	name := NormalizeType(typeName)
	if conv == nil {
		delete(s.table, name)
		return
	}
	s.table[name] = conv
}

// Table returns a copy of the type table.
func (s *Static) Table() map[string]*Converter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.table)
}

// ConverterForType implements ValueMapper.
func (s *Static) ConverterForType(typeName string) *Converter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if conv, ok := s.table[typeName]; ok {
		return conv
	}
	return s.table[baseType(typeName)]
}

// ValueForObject implements ValueMapper.
func (*Static) ValueForObject(any) (any, bool) {
	return nil, false
}

var (
	_ ValueMapper = (*Callback)(nil)
	_ ValueMapper = (*Static)(nil)
)
