package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordkit/record"
)

func TestCoercions(t *testing.T) {
	t.Parallel()

	c := record.Coercions{
		"id":    record.AsNumber,
		"score": record.AsNumberOrNil,
		"name":  record.AsString,
		"ratio": record.AsNumber,
	}
	rows, err := record.Collect(record.Coerce(record.FromRows(
		record.Of("id", "12", "score", "0", "name", nil, "ratio", []byte("0.5"), "other", "x"),
		record.Of("id", "abc", "score", "7", "name", 42),
	), c))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, record.Of("id", int64(12), "score", nil, "name", "", "ratio", 0.5, "other", "x"), rows[0])
	assert.Equal(t, record.Of("id", int64(0), "score", int64(7), "name", "42"), rows[1])
}
