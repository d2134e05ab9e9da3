package record

import (
	"errors"
	"iter"
)

// Iterator is a forward-only, pull-based source of rows, modeled after
// sql.Rows:
//
//	for it.Next() {
//	    r := it.Row()
//	}
//	if err := it.Err(); err != nil {
//	    ...
//	}
//
// Close releases any resource held by the source. It is safe to call more
// than once and must be called when a traversal is abandoned early.
type Iterator interface {
	Next() bool
	Row() *Row
	Err() error
	Close() error
}

// All adapts it to a range-over-func sequence. A source error is yielded as
// the final element with a nil row. All does not close the iterator.
func All(it Iterator) iter.Seq2[*Row, error] {
	return func(yield func(*Row, error) bool) {
		for it.Next() {
			if !yield(it.Row(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Collect drains it into a slice and closes it.
func Collect(it Iterator) ([]*Row, error) {
	var rows []*Row
	for it.Next() {
		rows = append(rows, it.Row())
	}
	return rows, errors.Join(it.Err(), it.Close())
}

// FromRows returns an Iterator over rows.
func FromRows(rows ...*Row) Iterator {
	return &sliceIter{rows: rows, pos: -1}
}

type sliceIter struct {
	rows []*Row
	pos  int
}

func (s *sliceIter) Next() bool {
	if s.pos+1 >= len(s.rows) {
		s.pos = len(s.rows)
		return false
	}
	s.pos++
	return true
}

func (s *sliceIter) Row() *Row {
	if s.pos < 0 || s.pos >= len(s.rows) {
		return nil
	}
	return s.rows[s.pos]
}

func (s *sliceIter) Err() error   { return nil }
func (s *sliceIter) Close() error { return nil }

// FromSeq returns an Iterator pulling from seq. A non-nil error stops the
// iteration and is reported by Err.
func FromSeq(seq iter.Seq2[*Row, error]) Iterator {
	next, stop := iter.Pull2(seq)
	return &seqIter{next: next, stop: stop}
}

type seqIter struct {
	next func() (*Row, error, bool)
	stop func()
	cur  *Row
	err  error
	done bool
}

func (s *seqIter) Next() bool {
	if s.done {
		return false
	}
	r, err, ok := s.next()
	if !ok || err != nil {
		s.err = err
		s.done = true
		s.cur = nil
		s.stop()
		return false
	}
	s.cur = r
	return true
}

func (s *seqIter) Row() *Row  { return s.cur }
func (s *seqIter) Err() error { return s.err }

func (s *seqIter) Close() error {
	s.done = true
	s.stop()
	return nil
}

// Map returns an Iterator applying fn to every row of it. An error returned
// by fn ends the iteration and is reported by Err.
func Map(it Iterator, fn func(*Row) (*Row, error)) Iterator {
	return &mapIter{src: it, fn: fn}
}

type mapIter struct {
	src Iterator
	fn  func(*Row) (*Row, error)
	cur *Row
	err error
}

func (m *mapIter) Next() bool {
	if m.err != nil || !m.src.Next() {
		m.cur = nil
		return false
	}
	r, err := m.fn(m.src.Row())
	if err != nil {
		m.err = err
		m.cur = nil
		return false
	}
	m.cur = r
	return true
}

func (m *mapIter) Row() *Row { return m.cur }

func (m *mapIter) Err() error {
	if m.err != nil {
		return m.err
	}
	return m.src.Err()
}

func (m *mapIter) Close() error { return m.src.Close() }
