package record

import (
	"fmt"
	"math"
)

// Coercion converts a single column value.
type Coercion func(v any) any

// Coercions maps column names to the coercion applied to them.
type Coercions map[string]Coercion

// Apply returns a copy of r with every present, configured column coerced.
func (c Coercions) Apply(r *Row) *Row {
	out := r.Clone()
	r.Range(func(name string, v any) bool {
		if fn := c[name]; fn != nil {
			out.Set(name, fn(v))
		}
		return true
	})
	return out
}

// Coerce returns an Iterator applying c to every row of it.
func Coerce(it Iterator, c Coercions) Iterator {
	return Map(it, func(r *Row) (*Row, error) {
		return c.Apply(r), nil
	})
}

// AsNumber coerces v to int64 when it is integral and float64 otherwise.
// Values that are not numeric become 0.
func AsNumber(v any) any {
	d, ok := number(normalize(v))
	if !ok {
		if b, isBool := v.(bool); isBool && b {
			return int64(1)
		}
		return int64(0)
	}
	f := d.InexactFloat64()
	if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return int64(f)
	}
	return f
}

// AsNumberOrNil coerces v like AsNumber, but falsy values become nil.
func AsNumberOrNil(v any) any {
	if !truthy(normalize(v)) {
		return nil
	}
	return AsNumber(v)
}

// AsString coerces v to its string form. nil becomes "".
func AsString(v any) any {
	switch s := normalize(v).(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
