package encoder

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"quotes-export/internal/codec"
	"quotes-export/internal/model"
)

const separator = ';'

var barHeader = []string{"date_time", "open", "close", "low", "high", "volume"}

// opener returns the output on the first record, so an empty stream writes
// nothing.
type opener func() (io.Writer, error)

// quoteText renders quotes as delimited text. Shallower sides are padded with
// empty fields up to the header depth; deeper ones are written in full.
type quoteText struct {
	open   opener
	top    bool
	levels int // 0 takes the depth of the first record
	w      *csv.Writer
	ts     codec.RepeatTimestamp
	record []string
}

func newQuoteText(open opener, top bool, levels int) *quoteText {
	if top {
		levels = 1
	}
	return &quoteText{open: open, top: top, levels: levels}
}

func (t *quoteText) write(q model.Quote) error {
	if t.w == nil {
		if t.levels == 0 {
			t.levels = max(len(q.Bids), len(q.Asks), 1)
		}
		if err := t.start(); err != nil {
			return err
		}
	}
	rec := append(t.record[:0], t.ts.Format(q.Time))
	for _, side := range model.Sides {
		entries := q.Side(side)
		if t.top && len(entries) > 1 {
			entries = entries[:1]
		}
		indicative := q.Indicative.Has(side)
		for _, e := range entries {
			rec = append(rec, formatNumber(e.Price), formatNumber(codec.EncodeVolume(e.Volume, indicative)))
		}
		for i := len(entries); i < t.levels; i++ {
			rec = append(rec, "", "")
		}
	}
	// Bid padding keeps ask columns aligned; the trailing empties go.
	for len(rec) > 1 && rec[len(rec)-1] == "" {
		rec = rec[:len(rec)-1]
	}
	t.record = rec
	return t.w.Write(rec)
}

// ensureHeader opens the output and writes the header if no record did.
func (t *quoteText) ensureHeader() error {
	if t.w != nil {
		return nil
	}
	if t.levels == 0 {
		t.levels = 1
	}
	return t.start()
}

func (t *quoteText) start() error {
	out, err := t.open()
	if err != nil {
		return err
	}
	t.w = csv.NewWriter(out)
	t.w.Comma = separator

	header := []string{"date_time"}
	for _, side := range model.Sides {
		name := strings.ToLower(side.String())
		for i := 1; i <= t.levels; i++ {
			if t.top {
				header = append(header, name+"_price", name+"_volume")
				continue
			}
			header = append(header, fmt.Sprintf("%s_price_%d", name, i), fmt.Sprintf("%s_volume_%d", name, i))
		}
	}
	return t.w.Write(header)
}

func (t *quoteText) flush() error {
	if t.w == nil {
		return nil
	}
	t.w.Flush()
	return t.w.Error()
}

// barText renders bars as delimited text.
type barText struct {
	open   opener
	w      *csv.Writer
	record []string
}

func (t *barText) write(b model.Bar) error {
	if t.w == nil {
		if err := t.ensureHeader(); err != nil {
			return err
		}
	}
	t.record = append(t.record[:0],
		b.From.UTC().Format(codec.TimeLayout),
		formatNumber(b.Open),
		formatNumber(b.Close),
		formatNumber(b.Low),
		formatNumber(b.High),
		formatNumber(b.Volume),
	)
	return t.w.Write(t.record)
}

func (t *barText) ensureHeader() error {
	if t.w != nil {
		return nil
	}
	out, err := t.open()
	if err != nil {
		return err
	}
	t.w = csv.NewWriter(out)
	t.w.Comma = separator
	return t.w.Write(barHeader)
}

func (t *barText) flush() error {
	if t.w == nil {
		return nil
	}
	t.w.Flush()
	return t.w.Error()
}

// formatNumber renders the shortest decimal that reads back as v. A negative
// zero keeps its sign: it is an indicative side with no volume.
func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return strconv.FormatFloat(v, 'f', -1, 64)
	case v == 0 && math.Signbit(v):
		return "-0"
	}
	return decimal.NewFromFloat(v).String()
}
