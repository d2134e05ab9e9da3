package recordkit

import (
	"errors"
	"fmt"

	"github.com/syssam/recordkit/dialect/sql"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned by the SelectOne family when a query yields no
	// record.
	ErrNotFound = errors.New("recordkit: no record found")

	// ErrSinkClosed is returned when a closed sink is fed.
	ErrSinkClosed = errors.New("recordkit: sink is closed")
)

// IsNotFound returns true if the error is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// QueryError wraps a failed query with the statement that caused it.
type QueryError struct {
	Op    string // Operation (e.g., "select", "count", "materialize")
	Query string // SQL text
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	return fmt.Sprintf("recordkit: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// InjectError wraps a failed sink execution.
type InjectError struct {
	Query string // SQL text
	Seq   int    // 1-based number of the failed Accept call
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *InjectError) Error() string {
	return fmt.Sprintf("recordkit: inject #%d: %v", e.Seq, e.Err)
}

// Unwrap returns the underlying error.
func (e *InjectError) Unwrap() error {
	return e.Err
}

// IsInjectError returns true if the error is an InjectError.
func IsInjectError(err error) bool {
	if err == nil {
		return false
	}
	var e *InjectError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	Kind sql.Constraint
	Err  error
}

// Error returns the error string.
func (e *ConstraintError) Error() string {
	return fmt.Sprintf("recordkit: %s constraint failed: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConstraintError
	return errors.As(err, &e)
}

// classify wraps driver constraint violations into a ConstraintError.
func classify(err error) error {
	if kind, ok := sql.ConstraintOf(err); ok {
		return &ConstraintError{Kind: kind, Err: err}
	}
	return err
}
