// Package codec holds the compact encodings applied to exported rows.
package codec

import (
	"strconv"
	"time"
)

// TimeLayout renders timestamps with millisecond precision.
const TimeLayout = "2006-01-02 15:04:05.000"

// RepeatTimestamp disambiguates consecutive records that share a millisecond
// timestamp. The first record of a run gets no suffix, the following ones get
// -1, -2, ... The suffix is an ordinal tiebreaker, not sub-millisecond time.
//
// The zero value is ready to use. One instance per output series.
type RepeatTimestamp struct {
	last    int64
	counter int
	started bool
}

// Next returns the counter for t: 0 when the millisecond differs from the
// previous record, otherwise the next negative ordinal.
func (c *RepeatTimestamp) Next(t time.Time) int {
	ms := t.UnixMilli()
	if c.started && ms == c.last {
		c.counter--
		return c.counter
	}
	c.started = true
	c.last = ms
	c.counter = 0
	return 0
}

// Format renders t in TimeLayout followed by its repeat suffix, if any.
func (c *RepeatTimestamp) Format(t time.Time) string {
	s := t.UTC().Format(TimeLayout)
	if n := c.Next(t); n != 0 {
		s += strconv.Itoa(n)
	}
	return s
}

// Reset forgets the previous timestamp.
func (c *RepeatTimestamp) Reset() {
	*c = RepeatTimestamp{}
}
