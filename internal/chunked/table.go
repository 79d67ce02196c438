package chunked

import (
	"fmt"
	"io"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// File metadata keys describing the datasets of a table.
const (
	metaDataset   = "dataset"
	metaIndex     = "index"
	metaShape     = "shape"
	metaChunkSize = "chunk_size"
)

// parquetTable stores a Table as a parquet file. The two datasets are the two
// columns of R; every region write is flushed as exactly one row group.
type parquetTable[R any] struct {
	name    string
	out     io.WriteCloser
	w       *parquet.GenericWriter[R]
	extent  int
	written int
}

// NewQuoteTable writes the Quotes/DateQuotes table to out with a fixed number
// of book levels per side. Close closes out.
func NewQuoteTable(out io.WriteCloser, levels, chunkSize int) (Table[QuoteRow], error) {
	if levels < 1 {
		return nil, fmt.Errorf("chunked: quote table needs at least one level, got %d", levels)
	}
	return newTable[QuoteRow](out,
		parquet.KeyValueMetadata(metaDataset, "Quotes"),
		parquet.KeyValueMetadata(metaIndex, "DateQuotes"),
		parquet.KeyValueMetadata(metaShape, formatShape([]int{2, 2 * levels})),
		parquet.KeyValueMetadata(metaChunkSize, strconv.Itoa(chunkSize)),
	)
}

// NewBarTable writes the Bars/DataBars table to out. Close closes out.
func NewBarTable(out io.WriteCloser, chunkSize int) (Table[BarRow], error) {
	return newTable[BarRow](out,
		parquet.KeyValueMetadata(metaDataset, "Bars"),
		parquet.KeyValueMetadata(metaIndex, "DataBars"),
		parquet.KeyValueMetadata(metaShape, formatShape([]int{5})),
		parquet.KeyValueMetadata(metaChunkSize, strconv.Itoa(chunkSize)),
	)
}

func newTable[R any](out io.WriteCloser, opts ...parquet.WriterOption) (*parquetTable[R], error) {
	name := "table"
	if n, ok := out.(interface{ Name() string }); ok {
		name = n.Name()
	}
	return &parquetTable[R]{
		name: name,
		out:  out,
		w:    parquet.NewGenericWriter[R](out, opts...),
	}, nil
}

func (t *parquetTable[R]) Extend(rows int) error {
	if rows < t.extent {
		return fmt.Errorf("%s: cannot shrink from %d to %d rows", t.name, t.extent, rows)
	}
	t.extent = rows
	return nil
}

func (t *parquetTable[R]) WriteRegion(start int, rows []R) error {
	end := start + len(rows)
	if start != t.written || end > t.extent {
		return fmt.Errorf("%s: region [%d, %d) is not the unwritten tail of %d rows", t.name, start, end, t.extent)
	}
	if _, err := t.w.Write(rows); err != nil {
		return fmt.Errorf("%s: %w", t.name, err)
	}
	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("%s: flush row group: %w", t.name, err)
	}
	t.written = end
	return nil
}

func (t *parquetTable[R]) Close() error {
	err := t.w.Close()
	if cerr := t.out.Close(); err == nil {
		err = cerr
	}
	return err
}
