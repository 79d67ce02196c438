package provider

import (
	"context"
	"time"

	"quotes-export/internal/model"
)

// RecordStream is a pull cursor over the records of one request. A stream is
// consumed by exactly one encoder.
type RecordStream[T any] interface {
	// Next blocks until the next record arrives or timeout expires
	// (timeout <= 0 waits indefinitely). It returns io.EOF at end of stream,
	// ErrTimeout when the wait expires and ErrDisposed after Dispose.
	Next(timeout time.Duration) (T, error)

	// Dispose releases the stream and unblocks a pending Next. Safe to call
	// from another goroutine and more than once.
	Dispose() error
}

// Depth selects top-of-book or full book quotes.
type Depth int

const (
	DepthTop Depth = iota
	DepthFull
)

// Credentials for the quote service session.
type Credentials struct {
	Login    string
	Password string
}

// StreamOpener opens record streams on an established session. It must
// support concurrent independent streams: every export job shares one.
type StreamOpener interface {
	OpenQuoteStream(ctx context.Context, symbol string, depth Depth, from, to time.Time, maxBatch int) (RecordStream[model.Quote], error)
	OpenBarStream(ctx context.Context, symbol string, side model.Side, period model.BarPeriod, from, to time.Time, maxBatch int) (RecordStream[model.Bar], error)

	// OpenVWAPStream may fail for an individual exponent (unsupported
	// exponent, no liquidity) without affecting the session.
	OpenVWAPStream(ctx context.Context, symbol string, exponent int, from, to time.Time, maxBatch int) (RecordStream[model.Quote], error)
}

// QuoteService is the abstraction of the remote historical quote service.
// Implementations own their session protocol and resource cleanup.
type QuoteService interface {
	StreamOpener

	Name() string
	Connect(ctx context.Context, address string, timeout time.Duration) error
	Login(ctx context.Context, creds Credentials, timeout time.Duration) error
	ListSymbols(ctx context.Context, timeout time.Duration) ([]string, error)
	Disconnect() error
}
