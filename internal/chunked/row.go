package chunked

import (
	"math"
	"time"

	"quotes-export/internal/codec"
	"quotes-export/internal/model"
)

// QuoteRow is one row of the Quotes/DateQuotes pair. Quotes is the flattened
// [2][slots] array: side (bid=0, ask=1) major, then price,volume pairs per
// book level. DateQuotes is the Unix time in milliseconds.
type QuoteRow struct {
	Quotes     []float64 `parquet:"Quotes"`
	DateQuotes int64     `parquet:"DateQuotes"`
}

// BarRow is one row of the Bars/DataBars pair. Bars holds volume, open,
// close, high, low. DataBars holds the side and the Unix time in milliseconds.
type BarRow struct {
	Bars     []float64 `parquet:"Bars"`
	DataBars []int64   `parquet:"DataBars"`
}

// NewQuoteRow lays q out over a fixed number of book levels. Missing levels
// are NaN; truncated reports whether q had more levels than fit.
func NewQuoteRow(q model.Quote, levels int) (row QuoteRow, truncated bool) {
	slots := 2 * levels
	row = QuoteRow{Quotes: make([]float64, 2*slots), DateQuotes: q.Time.UnixMilli()}
	for _, side := range model.Sides {
		entries := q.Side(side)
		if len(entries) > levels {
			truncated = true
			entries = entries[:levels]
		}
		base := int(side) * slots
		for i := 0; i < levels; i++ {
			if i >= len(entries) {
				row.Quotes[base+2*i] = math.NaN()
				row.Quotes[base+2*i+1] = math.NaN()
				continue
			}
			row.Quotes[base+2*i] = entries[i].Price
			row.Quotes[base+2*i+1] = codec.EncodeVolume(entries[i].Volume, q.Indicative.Has(side))
		}
	}
	return row, truncated
}

// Quote rebuilds the record. Padding levels are dropped and negative volumes
// mark the side indicative.
func (r QuoteRow) Quote() model.Quote {
	q := model.Quote{Time: time.UnixMilli(r.DateQuotes).UTC()}
	slots := len(r.Quotes) / 2
	for _, side := range model.Sides {
		var entries []model.QuoteEntry
		base := int(side) * slots
		for i := 0; i+1 < slots; i += 2 {
			price := r.Quotes[base+i]
			if math.IsNaN(price) {
				break
			}
			volume, indicative := codec.DecodeVolume(r.Quotes[base+i+1])
			if indicative {
				q.Indicative |= indicativeFlag(side)
			}
			entries = append(entries, model.QuoteEntry{Price: price, Volume: volume})
		}
		if side == model.SideAsk {
			q.Asks = entries
		} else {
			q.Bids = entries
		}
	}
	return q
}

// NewBarRow lays b out in the Bars/DataBars order.
func NewBarRow(b model.Bar) BarRow {
	return BarRow{
		Bars:     []float64{b.Volume, b.Open, b.Close, b.High, b.Low},
		DataBars: []int64{int64(b.Side), b.From.UnixMilli()},
	}
}

// Bar rebuilds the record.
func (r BarRow) Bar() model.Bar {
	return model.Bar{
		From:   time.UnixMilli(r.DataBars[1]).UTC(),
		Side:   model.Side(r.DataBars[0]),
		Volume: r.Bars[0],
		Open:   r.Bars[1],
		Close:  r.Bars[2],
		High:   r.Bars[3],
		Low:    r.Bars[4],
	}
}

func indicativeFlag(s model.Side) model.IndicativeSide {
	if s == model.SideAsk {
		return model.IndicativeAsk
	}
	return model.IndicativeBid
}
