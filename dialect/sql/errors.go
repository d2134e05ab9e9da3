package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Constraint identifies the kind of constraint a statement violated.
type Constraint string

// Constraint kinds.
const (
	Unique     Constraint = "unique"
	ForeignKey Constraint = "foreign key"
	Check      Constraint = "check"
	NotNull    Constraint = "not null"
)

// sqlStateError is implemented by pq.Error and pgconn.PgError.
type sqlStateError interface {
	SQLState() string
}

// SQLSTATE codes of class 23, integrity constraint violation.
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlBadNull                = 1048
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// ConstraintOf classifies err. ok is false if err is not a constraint
// violation reported by one of the supported drivers.
func ConstraintOf(err error) (kind Constraint, ok bool) {
	if err == nil {
		return "", false
	}
	if e, ok := asError[*pq.Error](err); ok {
		return fromSQLState(string(e.Code))
	}
	if e, ok := asError[sqlStateError](err); ok {
		if kind, ok := fromSQLState(e.SQLState()); ok {
			return kind, true
		}
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		switch e.Number {
		case mysqlDuplicateEntry:
			return Unique, true
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return ForeignKey, true
		case mysqlCheckConstraintViolate:
			return Check, true
		case mysqlBadNull:
			return NotNull, true
		}
		return "", false
	}
	if e, ok := asError[*sqlite.Error](err); ok {
		switch e.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return Unique, true
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ForeignKey, true
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return Check, true
		case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return NotNull, true
		}
	}
	// Fallback for drivers and wrappers that only keep the message.
	msg := err.Error()
	switch {
	case containsAny(msg, "Error 1062", "violates unique constraint", "UNIQUE constraint failed"):
		return Unique, true
	case containsAny(msg, "Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"):
		return ForeignKey, true
	case containsAny(msg, "Error 3819", "violates check constraint", "CHECK constraint failed"):
		return Check, true
	case containsAny(msg, "Error 1048", "violates not-null constraint", "NOT NULL constraint failed"):
		return NotNull, true
	}
	return "", false
}

func fromSQLState(code string) (Constraint, bool) {
	switch code {
	case pgUniqueViolation:
		return Unique, true
	case pgForeignKeyViolation:
		return ForeignKey, true
	case pgCheckViolation:
		return Check, true
	case pgNotNullViolation:
		return NotNull, true
	}
	return "", false
}

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	_, ok := ConstraintOf(err)
	return ok
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	kind, _ := ConstraintOf(err)
	return kind == Unique
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	kind, _ := ConstraintOf(err)
	return kind == ForeignKey
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	kind, _ := ConstraintOf(err)
	return kind == Check
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				if e, ok := asError[T](inner); ok {
					return e, true
				}
			}
			return target, false
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
