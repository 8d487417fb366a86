package store

import (
	"github.com/pyropy/chunkfmt/core/model"
)

type rowScanner interface {
	next() (model.ChunkRecord, bool, error)
	close() error
}

// Iterator walks the rows of a store once. Not safe for concurrent use.
type Iterator struct {
	rows   rowScanner
	total  int
	record model.ChunkRecord
	err    error
	done   bool
}

func (it *Iterator) Next() bool {
	if it.done {
		return false
	}

	rec, ok, err := it.rows.next()
	if err != nil || !ok {
		it.err = err
		it.done = true
		return false
	}

	it.record = rec
	return true
}

// Record returns the current row with its compressed payload.
func (it *Iterator) Record() model.ChunkRecord {
	return it.record
}

// Total returns the row count taken when the iterator was created.
func (it *Iterator) Total() int {
	return it.total
}

func (it *Iterator) Err() error {
	return it.err
}

func (it *Iterator) Release() error {
	it.done = true
	return it.rows.close()
}
