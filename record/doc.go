// Package record provides ordered rows and the streaming transformers that
// fold consecutive related rows into nested records.
//
// # Rows
//
// A Row is an ordered mapping from column name to value:
//
//	r := record.Of("id", 1, "name", "Thomas")
//	v, ok := r.Get("name")
//
// # Transformers
//
// A Transformer consumes one row at a time and emits at most one folded
// record per call. Flush drains whatever is still pending at end of stream:
//
//	t, _ := record.NewCompactBy([]string{"id"})
//	t.Transform(record.Of("id", 1, "name", "John")) // nil
//	t.Transform(record.Of("id", 1, "name", "Paul")) // nil
//	t.Transform(record.Of("id", 2, "name", "Jane")) // {id: 1, name: John}
//	t.Flush()                                       // {id: 2, name: Jane}
//
// The package ships three transformers:
//
//   - CompactBy: merges rows sharing the same fold-key values, either keeping
//     the first non-null value of every field or overwriting with the last.
//   - StackBy: like CompactBy, but collects the values of stack fields into
//     ordered lists.
//   - AssignBy: folds the whole stream into one key/value record.
//
// # Adapters
//
// An Adapter drives a Transformer over any lazy Iterator and is itself an
// Iterator, so adapters nest:
//
//	it := record.Pipe(cursor, compact, stack)
//	for r, err := range record.All(it) {
//	    ...
//	}
//
// Transformers hold per-stream state and are not safe for concurrent use.
// Create one transformer and adapter per traversal.
package record
