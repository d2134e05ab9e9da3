package record

// CompactBy merges consecutive rows that share the same fold-key values into
// a single record. Compacting by id:
//
//	{id: 1, name: John}  -> nil
//	{id: 1, name: Paul}  -> nil
//	{id: 2, name: Jane}  -> {id: 1, name: John}
//	Flush                -> {id: 2, name: Jane}
//
// With the default ignore-null policy the first non-null value of each field
// wins; WithOverwrite makes the last row win. Fields missing from an incoming
// row never touch the pending record.
type CompactBy struct {
	folder
}

// NewCompactBy returns a CompactBy folding on keys.
func NewCompactBy(keys []string, opts ...Option) (*CompactBy, error) {
	f, err := newFolder(keys, opts)
	if err != nil {
		return nil, err
	}
	return &CompactBy{folder: f}, nil
}

// Transform implements Transformer.
func (c *CompactBy) Transform(r *Row) *Row {
	return c.step(r, (*Row).Clone, c.merge)
}

// AddKey appends a fold-key field. Adding a known field is a no-op.
func (c *CompactBy) AddKey(name string) error {
	return c.addKey(name)
}

func (c *CompactBy) merge(dst, src *Row) {
	src.Range(func(name string, v any) bool {
		c.mergeField(dst, name, v)
		return true
	})
}

var _ Transformer = (*CompactBy)(nil)
