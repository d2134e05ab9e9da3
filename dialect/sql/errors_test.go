package sql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestConstraintOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Constraint
		ok   bool
	}{
		{"nil", nil, "", false},
		{"plain", errors.New("syntax error"), "", false},
		{"pq unique", &pq.Error{Code: "23505"}, Unique, true},
		{"pq foreign key", &pq.Error{Code: "23503"}, ForeignKey, true},
		{"pq other", &pq.Error{Code: "42601"}, "", false},
		{"pgx check", &pgconn.PgError{Code: "23514"}, Check, true},
		{"pgx not null", &pgconn.PgError{Code: "23502"}, NotNull, true},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, Unique, true},
		{"mysql child row", &mysql.MySQLError{Number: 1452}, ForeignKey, true},
		{"mysql check", &mysql.MySQLError{Number: 3819}, Check, true},
		{"mysql syntax", &mysql.MySQLError{Number: 1064}, "", false},
		{"wrapped", fmt.Errorf("dialect/sql: exec: %w", &pq.Error{Code: "23505"}), Unique, true},
		{"joined", errors.Join(errors.New("rollback"), &mysql.MySQLError{Number: 1451}), ForeignKey, true},
		{"sqlite text", errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), Unique, true},
		{"sqlite not null", errors.New("NOT NULL constraint failed: users.name"), NotNull, true},
		{"postgres text", errors.New(`pq: insert or update on table "posts" violates foreign key constraint "fk"`), ForeignKey, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := ConstraintOf(tt.err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.ok, IsConstraintError(tt.err))
		})
	}
}

func TestConstraintHelpers(t *testing.T) {
	assert.True(t, IsUniqueConstraintError(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueConstraintError(&pq.Error{Code: "23503"}))
	assert.True(t, IsForeignKeyConstraintError(&mysql.MySQLError{Number: 1451}))
	assert.True(t, IsCheckConstraintError(errors.New("CHECK constraint failed: price")))
	assert.False(t, IsCheckConstraintError(nil))
}
