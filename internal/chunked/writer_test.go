package chunked

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTable keeps regions in memory and records every flush.
type memTable struct {
	extent  int
	rows    []int
	flushes []int
	closed  bool
}

func (m *memTable) Extend(rows int) error {
	if rows < m.extent {
		return fmt.Errorf("shrink %d -> %d", m.extent, rows)
	}
	m.extent = rows
	return nil
}

func (m *memTable) WriteRegion(start int, rows []int) error {
	if start != len(m.rows) || start+len(rows) != m.extent {
		return fmt.Errorf("region [%d, %d) with extent %d", start, start+len(rows), m.extent)
	}
	m.rows = append(m.rows, rows...)
	m.flushes = append(m.flushes, len(rows))
	return nil
}

func (m *memTable) Close() error {
	m.closed = true
	return nil
}

func TestWriter_FlushSizes(t *testing.T) {
	tbl := &memTable{}
	w := NewWriter[int](tbl, 128)
	for i := 0; i < 300; i++ {
		require.NoError(t, w.Append(i))
	}
	require.NoError(t, w.Finalize())

	assert.Equal(t, []int{128, 128, 44}, tbl.flushes)
	assert.Equal(t, 300, tbl.extent)
	assert.Equal(t, 300, w.Rows())
}

func TestWriter_RoundTripAllSizes(t *testing.T) {
	for _, c := range []int{1, 2, 3, 7, 64, 128} {
		for _, n := range []int{0, 1, 2, 63, 127, 128, 129, 300} {
			tbl := &memTable{}
			w := NewWriter[int](tbl, c)
			want := make([]int, n)
			for i := range want {
				want[i] = i * 3
				require.NoError(t, w.Append(want[i]))
			}
			require.NoError(t, w.Finalize())

			assert.Len(t, tbl.rows, n, "chunk %d rows %d", c, n)
			if n > 0 {
				assert.Equal(t, want, tbl.rows, "chunk %d rows %d", c, n)
			}
			for _, f := range tbl.flushes {
				assert.LessOrEqual(t, f, c)
			}
		}
	}
}

func TestWriter_EmptyFinalizeIsNoop(t *testing.T) {
	tbl := &memTable{}
	w := NewWriter[int](tbl, 4)
	require.NoError(t, w.Finalize())
	require.NoError(t, w.Finalize())
	assert.Empty(t, tbl.flushes)
	assert.Equal(t, 0, tbl.extent)
}

func TestWriter_FinalizeOnce(t *testing.T) {
	tbl := &memTable{}
	w := NewWriter[int](tbl, 4)
	require.NoError(t, w.Append(1))
	require.NoError(t, w.Finalize())
	require.NoError(t, w.Finalize())
	assert.Equal(t, []int{1}, tbl.flushes)
	assert.Error(t, w.Append(2))
}

func TestWriter_DefaultChunkSize(t *testing.T) {
	tbl := &memTable{}
	w := NewWriter[int](tbl, 0)
	for i := 0; i < DefaultChunkSize; i++ {
		require.NoError(t, w.Append(i))
	}
	assert.Equal(t, []int{DefaultChunkSize}, tbl.flushes)
}
