package chunked

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"quotes-export/internal/model"
)

// Info describes a table file.
type Info struct {
	Dataset   string // Quotes or Bars
	Index     string // DateQuotes or DataBars
	Shape     []int  // per-row shape of Dataset
	Rows      int64
	ChunkSize int
	Chunks    int // row groups
}

// Shape reads the table description from the file metadata.
func Shape(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return Info{}, err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", path, err)
	}

	info := Info{Rows: pf.NumRows(), Chunks: len(pf.RowGroups())}
	info.Dataset, _ = pf.Lookup(metaDataset)
	info.Index, _ = pf.Lookup(metaIndex)
	if info.Dataset == "" {
		return Info{}, fmt.Errorf("%s: not an exported table", path)
	}
	if v, ok := pf.Lookup(metaShape); ok {
		if info.Shape, err = parseShape(v); err != nil {
			return Info{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if v, ok := pf.Lookup(metaChunkSize); ok {
		info.ChunkSize, _ = strconv.Atoi(v)
	}
	return info, nil
}

// ReadQuotes returns the quotes with from <= time <= to. Zero bounds are open.
func ReadQuotes(path string, from, to time.Time) ([]model.Quote, error) {
	rows, err := parquet.ReadFile[QuoteRow](path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	lo, hi := bounds(len(rows), func(i int) int64 { return rows[i].DateQuotes }, from, to)
	out := make([]model.Quote, 0, hi-lo)
	for _, r := range rows[lo:hi] {
		out = append(out, r.Quote())
	}
	return out, nil
}

// ReadBars returns the bars with from <= time <= to. Zero bounds are open.
func ReadBars(path string, from, to time.Time) ([]model.Bar, error) {
	rows, err := parquet.ReadFile[BarRow](path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	lo, hi := bounds(len(rows), func(i int) int64 { return rows[i].DataBars[1] }, from, to)
	out := make([]model.Bar, 0, hi-lo)
	for _, r := range rows[lo:hi] {
		out = append(out, r.Bar())
	}
	return out, nil
}

// SearchTime returns the first row whose timestamp is >= t when inclusive,
// or > t otherwise. Rows must be in time order, as exported.
func SearchTime(path string, t time.Time, inclusive bool) (int, error) {
	info, err := Shape(path)
	if err != nil {
		return 0, err
	}
	var stamps []int64
	switch info.Dataset {
	case "Quotes":
		rows, err := parquet.ReadFile[QuoteRow](path)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		for _, r := range rows {
			stamps = append(stamps, r.DateQuotes)
		}
	default:
		rows, err := parquet.ReadFile[BarRow](path)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		for _, r := range rows {
			stamps = append(stamps, r.DataBars[1])
		}
	}
	return search(len(stamps), func(i int) int64 { return stamps[i] }, t.UnixMilli(), inclusive), nil
}

func search(n int, at func(int) int64, ms int64, inclusive bool) int {
	return sort.Search(n, func(i int) bool {
		if inclusive {
			return at(i) >= ms
		}
		return at(i) > ms
	})
}

func bounds(n int, at func(int) int64, from, to time.Time) (int, int) {
	lo, hi := 0, n
	if !from.IsZero() {
		lo = search(n, at, from.UnixMilli(), true)
	}
	if !to.IsZero() {
		hi = search(n, at, to.UnixMilli(), false)
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func formatShape(dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func parseShape(s string) ([]int, error) {
	var dims []int
	for _, p := range strings.Split(s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad shape %q", s)
		}
		dims = append(dims, d)
	}
	return dims, nil
}
