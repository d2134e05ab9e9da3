package mapper

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// UUID maps UUID columns to uuid.UUID. Textual and 16-byte binary forms are
// accepted.
type UUID struct{}

// ConverterForType implements ValueMapper.
func (UUID) ConverterForType(typeName string) *Converter {
	switch baseType(typeName) {
	case "UUID", "UNIQUEIDENTIFIER":
		return &Converter{Name: "uuid.UUID", Convert: parseUUID}
	}
	return nil
}

// ValueForObject implements ValueMapper.
func (UUID) ValueForObject(v any) (any, bool) {
	switch u := v.(type) {
	case uuid.UUID:
		return u.String(), true
	case uuid.NullUUID:
		if !u.Valid {
			return nil, true
		}
		return u.UUID.String(), true
	}
	return nil, false
}

func parseUUID(raw any) (any, error) {
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	case []byte:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		return uuid.ParseBytes(v)
	}
	return nil, fmt.Errorf("mapper: cannot convert %T to uuid.UUID", raw)
}

// Decimal maps DECIMAL and NUMERIC columns to decimal.Decimal, keeping the
// exact value drivers report as text.
type Decimal struct{}

// ConverterForType implements ValueMapper.
func (Decimal) ConverterForType(typeName string) *Converter {
	switch baseType(typeName) {
	case "DECIMAL", "NUMERIC", "DEC":
		return &Converter{Name: "decimal.Decimal", Convert: parseDecimal}
	}
	return nil
}

// ValueForObject implements ValueMapper.
func (Decimal) ValueForObject(v any) (any, bool) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d.String(), true
	case decimal.NullDecimal:
		if !d.Valid {
			return nil, true
		}
		return d.Decimal.String(), true
	}
	return nil, false
}

func parseDecimal(raw any) (any, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		return decimal.NewFromString(v)
	case []byte:
		return decimal.NewFromString(string(v))
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	}
	return nil, fmt.Errorf("mapper: cannot convert %T to decimal.Decimal", raw)
}

// Array maps PostgreSQL one-dimensional array columns to the lib/pq array
// types, and serializes those types and plain Go slices to array literals.
type Array struct{}

// ConverterForType implements ValueMapper.
func (Array) ConverterForType(typeName string) *Converter {
	switch baseType(typeName) {
	case "_TEXT", "_VARCHAR", "_BPCHAR", "_NAME", "_UUID":
		return arrayConverter("pq.StringArray", func() scanner { return &pq.StringArray{} })
	case "_INT2", "_INT4", "_INT8":
		return arrayConverter("pq.Int64Array", func() scanner { return &pq.Int64Array{} })
	case "_FLOAT4", "_FLOAT8", "_NUMERIC":
		return arrayConverter("pq.Float64Array", func() scanner { return &pq.Float64Array{} })
	case "_BOOL":
		return arrayConverter("pq.BoolArray", func() scanner { return &pq.BoolArray{} })
	}
	return nil
}

// ValueForObject implements ValueMapper.
func (Array) ValueForObject(v any) (any, bool) {
	var valuer driver.Valuer
	switch a := v.(type) {
	case pq.StringArray:
		valuer = a
	case pq.Int64Array:
		valuer = a
	case pq.Float64Array:
		valuer = a
	case pq.BoolArray:
		valuer = a
	case []string:
		valuer = pq.StringArray(a)
	case []int64:
		valuer = pq.Int64Array(a)
	case []float64:
		valuer = pq.Float64Array(a)
	case []bool:
		valuer = pq.BoolArray(a)
	default:
		return nil, false
	}
	raw, err := valuer.Value()
	if err != nil {
		return nil, false
	}
	return raw, true
}

type scanner interface {
	Scan(src any) error
}

func arrayConverter(name string, alloc func() scanner) *Converter {
	return &Converter{
		Name: name,
		Convert: func(raw any) (any, error) {
			dst := alloc()
			if err := dst.Scan(raw); err != nil {
				return nil, fmt.Errorf("mapper: convert %s: %w", name, err)
			}
			switch a := dst.(type) {
			case *pq.StringArray:
				return *a, nil
			case *pq.Int64Array:
				return *a, nil
			case *pq.Float64Array:
				return *a, nil
			case *pq.BoolArray:
				return *a, nil
			}
			return dst, nil
		},
	}
}

var (
	_ ValueMapper = UUID{}
	_ ValueMapper = Decimal{}
	_ ValueMapper = Array{}
)
