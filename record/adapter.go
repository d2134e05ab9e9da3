package record

import "iter"

// Adapter drives a Transformer over a lazy row source and exposes the folded
// records as an Iterator. It feeds every source row to the transformer in
// order, emits each completed record as soon as it is produced and flushes
// the transformer exactly once after the source is exhausted.
//
// If the source fails mid-stream the error is reported by Err and the
// transformer is not flushed: the partially accumulated group is dropped.
//
// An Adapter is single-use. Once exhausted, Next keeps returning false.
type Adapter struct {
	src  Iterator
	t    Transformer
	cur  *Row
	err  error
	done bool
}

// Adapt returns an Adapter feeding src into t.
func Adapt(src Iterator, t Transformer) *Adapter {
	return &Adapter{src: src, t: t}
}

// Pipe chains transformers: the records folded by ts[0] feed ts[1] and so on.
// With no transformers it returns src unchanged.
func Pipe(src Iterator, ts ...Transformer) Iterator {
	for _, t := range ts {
		src = Adapt(src, t)
	}
	return src
}

// Transformer returns the driven transformer.
func (a *Adapter) Transformer() Transformer { return a.t }

// Source returns the wrapped row source.
func (a *Adapter) Source() Iterator { return a.src }

// Next advances to the next folded record.
func (a *Adapter) Next() bool {
	a.cur = nil
	for !a.done {
		if a.src.Next() {
			if out := a.t.Transform(a.src.Row()); out != nil {
				a.cur = out
				return true
			}
			continue
		}
		a.done = true
		if err := a.src.Err(); err != nil {
			a.err = err
			return false
		}
		if out := a.t.Flush(); out != nil {
			a.cur = out
			return true
		}
	}
	return false
}

// Row returns the current folded record.
func (a *Adapter) Row() *Row { return a.cur }

// Err returns the error reported by the source, if any.
func (a *Adapter) Err() error { return a.err }

// Close closes the source.
func (a *Adapter) Close() error { return a.src.Close() }

// All returns the folded records as a range-over-func sequence.
func (a *Adapter) All() iter.Seq2[*Row, error] { return All(a) }

var _ Iterator = (*Adapter)(nil)
