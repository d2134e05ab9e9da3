package mapper

import (
	"slices"
	"sync"
)

// Chain composes mappers in insertion order. Lookups in both directions
// return the first match. A Chain is itself a ValueMapper, so chains nest.
//
// Lookups may run concurrently with each other and with Add and Remove.
type Chain struct {
	mu      sync.RWMutex
	mappers []ValueMapper
}

// NewChain returns a chain holding ms in order. Repeated instances are
// added once.
func NewChain(ms ...ValueMapper) *Chain {
	c := &Chain{}
	for _, m := range ms {
		c.Add(m)
	}
	return c
}

// Add appends m. Adding an instance already in the chain is a no-op.
// Pointer mappers are the same instance when the pointers are equal.
// Comparable value mappers are compared by value, so UUID{} added twice is
// kept once. Mappers of non-comparable types are never the same.
func (c *Chain) Add(m ValueMapper) {
	if m == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexLocked(m) < 0 {
		c.mappers = append(c.mappers, m)
	}
}

// Remove removes m, identified as in Add. Removing an absent mapper is a
// no-op.
func (c *Chain) Remove(m ValueMapper) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(m); i >= 0 {
		c.mappers = slices.Delete(c.mappers, i, i+1)
	}
}

// Mappers returns the mappers in priority order.
func (c *Chain) Mappers() []ValueMapper {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.mappers)
}

// SetMappers replaces the chain content.
func (c *Chain) SetMappers(ms ...ValueMapper) {
	c.mu.Lock()
	c.mappers = nil
	c.mu.Unlock()
	for _, m := range ms {
		c.Add(m)
	}
}

// Len returns the number of mappers.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mappers)
}

// ConverterForType implements ValueMapper.
func (c *Chain) ConverterForType(typeName string) *Converter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.mappers {
		if conv := m.ConverterForType(typeName); conv != nil {
			return conv
		}
	}
	return nil
}

// ValueForObject implements ValueMapper.
func (c *Chain) ValueForObject(v any) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.mappers {
		if raw, ok := m.ValueForObject(v); ok {
			return raw, true
		}
	}
	return nil, false
}

func (c *Chain) indexLocked(m ValueMapper) int {
	return slices.IndexFunc(c.mappers, func(x ValueMapper) bool { return same(x, m) })
}

var _ ValueMapper = (*Chain)(nil)
