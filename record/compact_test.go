package record_test

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordkit/record"
)

// fold feeds rows to t, flushes it and returns every emitted record.
func fold(t record.Transformer, rows ...*record.Row) []*record.Row {
	var out []*record.Row
	for _, r := range rows {
		if got := t.Transform(r); got != nil {
			out = append(out, got)
		}
	}
	if got := t.Flush(); got != nil {
		out = append(out, got)
	}
	return out
}

func TestCompactBy_Example(t *testing.T) {
	t.Parallel()

	c, err := record.NewCompactBy([]string{"id"}, record.WithOverwrite())
	require.NoError(t, err)

	assert.Nil(t, c.Transform(record.Of("id", 1, "name", "John")))
	assert.Nil(t, c.Transform(record.Of("id", 1, "name", "Paul")))
	assert.Equal(t, record.Of("id", 1, "name", "Paul"), c.Transform(record.Of("id", 2, "name", "Jane")))
	assert.Equal(t, record.Of("id", 2, "name", "Jane"), c.Flush())
}

func TestCompactBy_IgnoreNullKeepsFirstNonNull(t *testing.T) {
	t.Parallel()

	c, err := record.NewCompactBy([]string{"id"})
	require.NoError(t, err)
	assert.True(t, c.IgnoreNull())

	out := fold(c,
		record.Of("id", 1, "name", nil, "wert", "Abplanalp", "note", nil),
		record.Of("id", 1, "name", "Thomas", "wert", "Maurer", "note", nil),
		record.Of("id", 1, "name", "Paul", "wert", nil, "note", "x"),
	)
	require.Len(t, out, 1, spew.Sdump(out))
	assert.Equal(t, record.Of("id", 1, "name", "Thomas", "wert", "Abplanalp", "note", "x"), out[0])
}

func TestCompactBy_OverwriteLastWriteWins(t *testing.T) {
	t.Parallel()

	c, err := record.NewCompactBy([]string{"id"}, record.WithOverwrite())
	require.NoError(t, err)
	assert.False(t, c.IgnoreNull())

	out := fold(c,
		record.Of("id", 1, "name", "T", "wert", "a"),
		record.Of("id", 1, "name", "A"),
		record.Of("id", 1, "wert", nil),
	)
	require.Len(t, out, 1)
	assert.Equal(t, record.Of("id", 1, "name", "A", "wert", nil), out[0])
}

func TestCompactBy_OneRecordPerBlock(t *testing.T) {
	t.Parallel()

	c, err := record.NewCompactBy([]string{"name"})
	require.NoError(t, err)

	out := fold(c,
		record.Of("wert", "Abplanalp", "name", "Thomas"),
		record.Of("wert", "Maurer", "name", "Daniela"),
		record.Of("wert", "Zaege", "name", "Priska"),
		record.Of("wert", "Abplanalp", "name", "Bettina"),
		record.Of("wert", "Meier", "name", "Bettina"),
		record.Of("wert", nil, "name", "Katrin"),
		record.Of("wert", nil, "name", "Thomas"),
	)
	want := []*record.Row{
		record.Of("wert", "Abplanalp", "name", "Thomas"),
		record.Of("wert", "Maurer", "name", "Daniela"),
		record.Of("wert", "Zaege", "name", "Priska"),
		record.Of("wert", "Abplanalp", "name", "Bettina"),
		record.Of("wert", nil, "name", "Katrin"),
		record.Of("wert", nil, "name", "Thomas"),
	}
	assert.Equal(t, want, out, spew.Sdump(out))
}

func TestCompactBy_CompositeKey(t *testing.T) {
	t.Parallel()

	c, err := record.NewCompactBy([]string{"a", "b"}, record.WithOverwrite())
	require.NoError(t, err)

	out := fold(c,
		record.Of("a", 1, "b", "x", "v", 1),
		record.Of("a", "1", "b", "x", "v", 2),
		record.Of("a", 1, "b", "y", "v", 3),
	)
	require.Len(t, out, 2)
	assert.Equal(t, 2, out[0].Value("v"), "loosely equal keys continue the group")
	assert.Equal(t, 3, out[1].Value("v"))
}

func TestCompactBy_LargeIntegerKeys(t *testing.T) {
	t.Parallel()

	c, err := record.NewCompactBy([]string{"id"})
	require.NoError(t, err)

	out := fold(c,
		record.Of("id", int64(1152921504606846977), "name", "a"),
		record.Of("id", int64(1152921504606846976), "name", "b"),
		record.Of("id", "1152921504606846976", "name", "c"),
	)
	require.Len(t, out, 2, spew.Sdump(out))
	assert.Equal(t, record.Of("id", int64(1152921504606846977), "name", "a"), out[0])
	assert.Equal(t, record.Of("id", int64(1152921504606846976), "name", "b"), out[1])
}

func TestCompactBy_MissingKeyIsNull(t *testing.T) {
	t.Parallel()

	c, err := record.NewCompactBy([]string{"id"})
	require.NoError(t, err)

	out := fold(c,
		record.Of("name", "a"),
		record.Of("id", nil, "note", "b"),
		record.Of("id", 1, "name", "c"),
	)
	require.Len(t, out, 2)
	assert.Equal(t, record.Of("name", "a", "id", nil, "note", "b"), out[0])
	assert.Equal(t, record.Of("id", 1, "name", "c"), out[1])
}

func TestCompactBy_FlushIsIdempotentAndReusable(t *testing.T) {
	t.Parallel()

	c, err := record.NewCompactBy([]string{"id"})
	require.NoError(t, err)

	assert.Nil(t, c.Flush(), "flushing an empty transformer emits nothing")
	assert.Nil(t, c.Transform(record.Of("id", 1)))
	assert.NotNil(t, c.Flush())
	assert.Nil(t, c.Flush())

	assert.Nil(t, c.Transform(record.Of("id", 1, "name", "again")))
	assert.Equal(t, record.Of("id", 1, "name", "again"), c.Flush())
}

func TestCompactBy_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	c, err := record.NewCompactBy([]string{"id"})
	require.NoError(t, err)

	first := record.Of("id", 1, "name", nil)
	fold(c, first, record.Of("id", 1, "name", "x"))
	assert.Equal(t, record.Of("id", 1, "name", nil), first)
}

func TestCompactBy_AddKey(t *testing.T) {
	t.Parallel()

	c, err := record.NewCompactBy([]string{"id"})
	require.NoError(t, err)
	require.NoError(t, c.AddKey("lang"))
	require.NoError(t, c.AddKey("id"))
	assert.Equal(t, []string{"id", "lang"}, c.Keys())
	assert.True(t, record.IsConfigError(c.AddKey("")))

	c.SetIgnoreNull(false)
	assert.False(t, c.IgnoreNull())
}

func TestCompactBy_Configuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		keys []string
	}{
		{"no keys", nil},
		{"empty key", []string{"id", ""}},
		{"duplicate key", []string{"id", "id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := record.NewCompactBy(tt.keys)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, record.ErrConfiguration)
		})
	}
}
