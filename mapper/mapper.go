// Package mapper converts raw column values into typed value objects and back.
//
// A ValueMapper resolves the declared type name of a result column to a
// Converter, and serializes application values into raw scalars for
// parameter binding. Mappers are composed with a Chain, in which the first
// mapper that matches wins:
//
//	chain := mapper.NewChain(
//		mapper.NewDate(nil),
//		mapper.UUID{},
//		mapper.Decimal{},
//	)
//	conv := chain.ConverterForType(mapper.NormalizeType("timestamp"))
//	v, err := conv.Convert([]byte("2024-03-01 10:00:00"))
//
// A miss is never an error: ConverterForType returns nil and ValueForObject
// returns false.
package mapper

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Converter builds a typed value object from a raw, non-nil column value.
type Converter struct {
	// Name identifies the produced type, e.g. "time.Time".
	Name string
	// Convert converts the raw value. It is never called with nil.
	Convert func(raw any) (any, error)
}

// String returns the converter name.
func (c *Converter) String() string {
	if c == nil {
		return "<nil>"
	}
	return c.Name
}

// ValueMapper maps declared column types to converters and typed values
// back to raw scalars. Both methods must be pure functions of their
// argument.
type ValueMapper interface {
	// ConverterForType returns the converter for an upper-cased declared type
	// name, or nil if the mapper does not know the type.
	ConverterForType(typeName string) *Converter
	// ValueForObject serializes v into a raw scalar. The boolean is false if
	// the mapper does not know how to serialize v.
	ValueForObject(v any) (any, bool)
}

var upper = cases.Upper(language.Und)

// NormalizeType returns the lookup form of a declared type name: trimmed and
// upper-cased.
func NormalizeType(name string) string {
	return upper.String(strings.TrimSpace(name))
}

// baseType strips a length or precision suffix: "DECIMAL(10,2)" -> "DECIMAL".
func baseType(name string) string {
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// IsScalar reports whether v can be bound as a query argument as is.
func IsScalar(v any) bool {
	switch v.(type) {
	case nil, bool, string, []byte,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// same reports whether a and b are the same mapper instance: equal pointers
// or equal comparable values of the same type.
func same(a, b ValueMapper) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

var registry = map[string]func() ValueMapper{
	"date":    func() ValueMapper { return NewDate(nil) },
	"uuid":    func() ValueMapper { return UUID{} },
	"decimal": func() ValueMapper { return Decimal{} },
	"array":   func() ValueMapper { return Array{} },
}

// Names returns the names accepted by ByName, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ByName returns a new instance of a built-in mapper.
func ByName(name string) (ValueMapper, error) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("mapper: unknown mapper %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return f(), nil
}

// Default returns a chain holding every built-in mapper.
func Default() *Chain {
	c := NewChain()
	for _, name := range Names() {
		m, _ := ByName(name)
		c.Add(m)
	}
	return c
}
