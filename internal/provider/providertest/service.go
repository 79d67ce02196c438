package providertest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"quotes-export/internal/model"
	"quotes-export/internal/provider"
)

// Service is an in-memory provider.QuoteService. Configure the exported
// fields before use; the counters are safe to read concurrently.
type Service struct {
	Quotes map[string][]model.Quote // by symbol
	Bars   map[string][]model.Bar   // by symbol, filtered by side on open
	VWAP   map[int][]model.Quote    // by exponent; a missing exponent fails to open

	// Timeouts is the number of opened streams that time out at TimeoutAt.
	Timeouts  int
	TimeoutAt int

	// Hang makes every stream block at HangAt until disposed.
	Hang    bool
	HangAt  int
	Hanging chan struct{}

	ConnectErr error
	LoginErr   error

	mu         sync.Mutex
	opens      int
	vwapOpened []int
	streams    []provider.Disposer
}

var _ provider.QuoteService = (*Service)(nil)

func (s *Service) Name() string { return "fake" }

func (s *Service) Connect(context.Context, string, time.Duration) error { return s.ConnectErr }

func (s *Service) Login(context.Context, provider.Credentials, time.Duration) error {
	return s.LoginErr
}

func (s *Service) ListSymbols(context.Context, time.Duration) ([]string, error) {
	var out []string
	for sym := range s.Quotes {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) Disconnect() error { return nil }

func (s *Service) OpenQuoteStream(_ context.Context, symbol string, depth provider.Depth, from, to time.Time, _ int) (provider.RecordStream[model.Quote], error) {
	var out []model.Quote
	for _, q := range s.Quotes[symbol] {
		if inRange(q.Time, from, to) {
			if depth == provider.DepthTop {
				q = q.Top()
			}
			out = append(out, q)
		}
	}
	return configure(s, NewStream(out...)), nil
}

func (s *Service) OpenBarStream(_ context.Context, symbol string, side model.Side, _ model.BarPeriod, from, to time.Time, _ int) (provider.RecordStream[model.Bar], error) {
	var out []model.Bar
	for _, b := range s.Bars[symbol] {
		if b.Side == side && inRange(b.From, from, to) {
			out = append(out, b)
		}
	}
	return configure(s, NewStream(out...)), nil
}

func (s *Service) OpenVWAPStream(_ context.Context, _ string, exponent int, from, to time.Time, _ int) (provider.RecordStream[model.Quote], error) {
	s.mu.Lock()
	s.vwapOpened = append(s.vwapOpened, exponent)
	s.mu.Unlock()

	quotes, ok := s.VWAP[exponent]
	if !ok {
		return nil, fmt.Errorf("vwap exponent %d: no liquidity", exponent)
	}
	var out []model.Quote
	for _, q := range quotes {
		if inRange(q.Time, from, to) {
			out = append(out, q)
		}
	}
	return configure(s, NewStream(out...)), nil
}

// Opens returns the number of streams opened so far.
func (s *Service) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// VWAPOpened returns the exponents requested, in order.
func (s *Service) VWAPOpened() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.vwapOpened...)
}

// AllDisposed reports whether every opened stream has been disposed.
func (s *Service) AllDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.streams {
		if d, ok := st.(interface{ Disposed() bool }); ok && !d.Disposed() {
			return false
		}
	}
	return true
}

func configure[T any](s *Service, st *Stream[T]) *Stream[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	s.streams = append(s.streams, st)
	if s.Timeouts > 0 {
		s.Timeouts--
		st.TimeoutAt = s.TimeoutAt
	}
	if s.Hang {
		st.HangAt = s.HangAt
		st.Hanging = s.Hanging
	}
	return st
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// Quotes builds n one-level quotes starting at start, one millisecond apart.
func Quotes(start time.Time, n int) []model.Quote {
	out := make([]model.Quote, n)
	for i := range out {
		out[i] = model.Quote{
			Time: start.Add(time.Duration(i) * time.Millisecond),
			Bids: []model.QuoteEntry{{Price: 1.1 + float64(i)/1e5, Volume: float64(1000 + i)}},
			Asks: []model.QuoteEntry{{Price: 1.2 + float64(i)/1e5, Volume: float64(2000 + i)}},
		}
	}
	return out
}

// Bars builds n bars of side starting at start, one minute apart.
func Bars(start time.Time, side model.Side, n int) []model.Bar {
	out := make([]model.Bar, n)
	for i := range out {
		base := 1.1 + float64(i)/100
		out[i] = model.Bar{
			From:   start.Add(time.Duration(i) * time.Minute),
			Side:   side,
			Open:   base,
			High:   base + 0.005,
			Low:    base - 0.005,
			Close:  base + 0.001,
			Volume: float64(100 * (i + 1)),
		}
	}
	return out
}
