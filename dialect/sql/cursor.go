package sql

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/recordkit/record"
)

// ColumnMeta describes a result column.
type ColumnMeta struct {
	Name string
	// DatabaseType is the type name reported by the driver, e.g. "VARCHAR",
	// "INT8" or "TIMESTAMPTZ". It is empty when the driver does not report it.
	DatabaseType string
}

// binaryTypes keep their []byte values. Every other []byte is a textual value
// in disguise and is turned into a string.
var binaryTypes = []string{"BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BYTEA", "BINARY", "VARBINARY"}

// IsBinaryType reports whether a declared column type holds raw bytes.
func IsBinaryType(typeName string) bool {
	name := strings.ToUpper(typeName)
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	return slices.Contains(binaryTypes, strings.TrimSpace(name))
}

// Cursor reads a result set lazily as record rows. It implements
// record.Iterator and releases the underlying rows once they are exhausted,
// when a scan fails or when Close is called.
type Cursor struct {
	rows   ColumnScanner
	cols   []ColumnMeta
	binary []bool
	cur    *record.Row
	err    error
	closed bool
}

// NewCursor reads the column metadata of rows. rows is closed if the
// metadata cannot be read.
func NewCursor(rows ColumnScanner) (*Cursor, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("dialect/sql: columns: %w", err), rows.Close())
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("dialect/sql: column types: %w", err), rows.Close())
	}
	c := &Cursor{
		rows:   rows,
		cols:   make([]ColumnMeta, len(names)),
		binary: make([]bool, len(names)),
	}
	for i, name := range names {
		c.cols[i].Name = name
		if i < len(types) && types[i] != nil {
			c.cols[i].DatabaseType = types[i].DatabaseTypeName()
		}
		c.binary[i] = IsBinaryType(c.cols[i].DatabaseType)
	}
	return c, nil
}

// Columns returns the column metadata of the result set.
func (c *Cursor) Columns() []ColumnMeta {
	return slices.Clone(c.cols)
}

// Next advances the cursor.
func (c *Cursor) Next() bool {
	c.cur = nil
	if c.closed {
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		c.release()
		return false
	}
	vals := make([]any, len(c.cols))
	dest := make([]any, len(c.cols))
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err := c.rows.Scan(dest...); err != nil {
		c.err = fmt.Errorf("dialect/sql: scan: %w", err)
		c.release()
		return false
	}
	r := record.NewRow(len(c.cols))
	for i, col := range c.cols {
		v := vals[i]
		if b, ok := v.([]byte); ok && !c.binary[i] {
			v = string(b)
		}
		r.Set(col.Name, v)
	}
	c.cur = r
	return true
}

// Row returns the current row.
func (c *Cursor) Row() *record.Row { return c.cur }

// Err returns the error that ended the iteration, if any.
func (c *Cursor) Err() error { return c.err }

// Close releases the result set. It is safe to call more than once.
func (c *Cursor) Close() error {
	c.cur = nil
	return c.release()
}

func (c *Cursor) release() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.rows.Close(); err != nil {
		if c.err == nil {
			c.err = err
		}
		return err
	}
	return nil
}

var _ record.Iterator = (*Cursor)(nil)
