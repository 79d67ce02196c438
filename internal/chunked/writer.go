// Package chunked writes unbounded record streams into a growable row-chunked
// table with memory bounded by one chunk, and reads such tables back.
package chunked

import "fmt"

// DefaultChunkSize is the row chunk length of exported tables.
const DefaultChunkSize = 128

// Table is a pair of on-disk datasets sharing one growable row axis.
type Table[R any] interface {
	// Extend grows the logical row extent of both datasets to rows.
	Extend(rows int) error
	// WriteRegion writes rows into [start, start+len(rows)) of the current extent.
	WriteRegion(start int, rows []R) error
	Close() error
}

// Writer stages rows and flushes them to a Table one full chunk at a time.
// A Writer is owned by a single job and is not safe for concurrent use.
type Writer[R any] struct {
	table   Table[R]
	staging []R
	offset  int
	rows    int
	done    bool
}

// NewWriter returns a Writer over table. chunkSize < 1 uses DefaultChunkSize.
func NewWriter[R any](table Table[R], chunkSize int) *Writer[R] {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Writer[R]{table: table, staging: make([]R, chunkSize)}
}

// Append stages r and flushes the staging buffer when it is full.
func (w *Writer[R]) Append(r R) error {
	if w.done {
		return fmt.Errorf("chunked: append after finalize")
	}
	w.staging[w.offset] = r
	w.offset++
	w.rows++
	if w.offset == len(w.staging) {
		return w.flush()
	}
	return nil
}

// Finalize flushes the populated prefix of the staging buffer, if any. It
// does not close the table.
func (w *Writer[R]) Finalize() error {
	if w.done {
		return nil
	}
	w.done = true
	if w.offset == 0 {
		return nil
	}
	return w.flush()
}

// Rows is the number of rows appended so far.
func (w *Writer[R]) Rows() int { return w.rows }

func (w *Writer[R]) flush() error {
	start := w.rows - w.offset
	if err := w.table.Extend(w.rows); err != nil {
		return fmt.Errorf("chunked: extend to %d rows: %w", w.rows, err)
	}
	if err := w.table.WriteRegion(start, w.staging[:w.offset]); err != nil {
		return fmt.Errorf("chunked: write rows [%d, %d): %w", start, w.rows, err)
	}
	w.offset = 0
	return nil
}
