package model

import "time"

// QuoteEntry is one book level.
type QuoteEntry struct {
	Price  float64
	Volume float64
}

// IndicativeSide flags the sides of a quote that are advisory only.
type IndicativeSide uint8

const (
	IndicativeNone IndicativeSide = 0
	IndicativeBid  IndicativeSide = 1 << 0
	IndicativeAsk  IndicativeSide = 1 << 1
	IndicativeBoth                = IndicativeBid | IndicativeAsk
)

// Has reports whether side s is marked indicative.
func (f IndicativeSide) Has(s Side) bool {
	if s == SideAsk {
		return f&IndicativeAsk != 0
	}
	return f&IndicativeBid != 0
}

// Quote is a timestamped book snapshot. Bids and Asks are ordered best to worst.
type Quote struct {
	Time       time.Time
	Bids       []QuoteEntry
	Asks       []QuoteEntry
	Indicative IndicativeSide
}

// Side returns the entries of one side of the book.
func (q Quote) Side(s Side) []QuoteEntry {
	if s == SideAsk {
		return q.Asks
	}
	return q.Bids
}

// Top returns a copy of q reduced to the best bid and best ask.
func (q Quote) Top() Quote {
	top := q
	if len(q.Bids) > 1 {
		top.Bids = q.Bids[:1]
	}
	if len(q.Asks) > 1 {
		top.Asks = q.Asks[:1]
	}
	return top
}
