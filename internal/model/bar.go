package model

import "time"

// Bar represents one OHLCV bar for a single price side (bid or ask).
// Shared by providers, encoders and the chunked container.
type Bar struct {
	From   time.Time // period start, millisecond resolution
	Side   Side
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
