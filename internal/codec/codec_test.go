package codec

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRepeatTimestamp_Suffixes(t *testing.T) {
	t1 := time.Date(2018, 6, 8, 5, 0, 0, 123_000_000, time.UTC)
	t2 := t1.Add(time.Millisecond)

	var c RepeatTimestamp
	got := []int{c.Next(t1), c.Next(t1), c.Next(t1), c.Next(t2)}
	assert.Equal(t, []int{0, -1, -2, 0}, got)
}

func TestRepeatTimestamp_SubMillisecondIsSameStamp(t *testing.T) {
	t1 := time.Date(2018, 6, 8, 5, 0, 0, 123_000_000, time.UTC)

	var c RepeatTimestamp
	assert.Equal(t, 0, c.Next(t1))
	assert.Equal(t, -1, c.Next(t1.Add(400*time.Microsecond)))
}

func TestRepeatTimestamp_Format(t *testing.T) {
	t1 := time.Date(2018, 6, 8, 5, 0, 0, 123_000_000, time.UTC)
	t2 := t1.Add(time.Second)

	var c RepeatTimestamp
	assert.Equal(t, "2018-06-08 05:00:00.123", c.Format(t1))
	assert.Equal(t, "2018-06-08 05:00:00.123-1", c.Format(t1))
	assert.Equal(t, "2018-06-08 05:00:01.123", c.Format(t2))
	assert.Equal(t, "2018-06-08 05:00:00.123", c.Format(t1))

	c.Reset()
	assert.Equal(t, "2018-06-08 05:00:00.123", c.Format(t1))
}

func TestIndicativeVolume_RoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1, 1000.5, 2e9} {
		for _, flag := range []bool{false, true} {
			got, gotFlag := DecodeVolume(EncodeVolume(v, flag))
			assert.Equal(t, v, got)
			if v != 0 {
				assert.Equal(t, flag, gotFlag, "volume %v", v)
			}
		}
	}
}

func TestIndicativeVolume_ZeroKeepsFlag(t *testing.T) {
	enc := EncodeVolume(0, true)
	assert.True(t, math.Signbit(enc))
	v, ind := DecodeVolume(enc)
	assert.Equal(t, 0.0, v)
	assert.True(t, ind)
}
