package record

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every ConfigError.
var ErrConfiguration = errors.New("record: invalid transformer configuration")

// ConfigError reports a transformer configured with an unusable field list.
// It is returned by constructors, never while rows are streaming.
type ConfigError struct {
	Field  string // Offending field name, empty for list-level problems
	Reason string
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("record: %s", e.Reason)
	}
	return fmt.Sprintf("record: field %q: %s", e.Field, e.Reason)
}

// Is reports whether the target error matches ErrConfiguration.
func (e *ConfigError) Is(err error) bool {
	return err == ErrConfiguration
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}

// checkFields validates a field list: no empty names and no duplicates.
func checkFields(role string, names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			return &ConfigError{Reason: "empty " + role + " field name"}
		}
		if _, ok := seen[name]; ok {
			return &ConfigError{Field: name, Reason: "duplicate " + role + " field"}
		}
		seen[name] = struct{}{}
	}
	return nil
}
