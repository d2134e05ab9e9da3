package mapper

import (
	"fmt"
	"slices"
	"time"
)

// DateLayout is the layout Date serializes time values with.
const DateLayout = "2006-01-02 15:04:05"

var dateTypes = []string{"DATE", "DATETIME", "TIME", "TIMESTAMP", "TIMESTAMPTZ", "TIMETZ"}

// layouts tried in order when parsing textual dates.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.DateOnly,
	"15:04:05.999999999Z07:00",
	time.TimeOnly,
}

// Date maps date and time columns to time.Time and serializes time.Time
// values as DateLayout. Entries of the embedded Static table take
// precedence over the built-in date types.
type Date struct {
	*Static
	// Location is used for values without a zone. Defaults to UTC.
	Location *time.Location
}

// NewDate returns a Date mapper with optional overrides.
func NewDate(overrides map[string]*Converter) *Date {
	return &Date{Static: NewStatic(overrides)}
}

// ConverterForType implements ValueMapper.
func (d *Date) ConverterForType(typeName string) *Converter {
	if d.Static != nil {
		if conv := d.Static.ConverterForType(typeName); conv != nil {
			return conv
		}
	}
	if !slices.Contains(dateTypes, baseType(typeName)) {
		return nil
	}
	return &Converter{Name: "time.Time", Convert: d.parse}
}

// ValueForObject implements ValueMapper.
func (*Date) ValueForObject(v any) (any, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.Format(DateLayout), true
	case *time.Time:
		if t == nil {
			return nil, true
		}
		return t.Format(DateLayout), true
	}
	return nil, false
}

func (d *Date) parse(raw any) (any, error) {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case int64:
		return time.Unix(v, 0).In(loc), nil
	case []byte:
		return parseTime(string(v), loc)
	case string:
		return parseTime(v, loc)
	}
	return nil, fmt.Errorf("mapper: cannot convert %T to time.Time", raw)
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("mapper: cannot parse %q as time", s)
}

var _ ValueMapper = (*Date)(nil)
