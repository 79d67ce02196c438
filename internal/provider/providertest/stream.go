// Package providertest provides an in-memory quote service for tests.
package providertest

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"quotes-export/internal/provider"
)

// Stream replays a fixed slice of records.
type Stream[T any] struct {
	records []T
	pos     int

	// TimeoutAt makes Next return provider.ErrTimeout once, when the cursor
	// reaches that index. -1 disables it.
	TimeoutAt int
	// HangAt makes Next block at that index until Dispose. -1 disables it.
	HangAt int
	// Hanging receives a value when Next starts blocking at HangAt.
	Hanging chan<- struct{}

	done     chan struct{}
	once     sync.Once
	disposed atomic.Bool
}

// NewStream returns a stream over records with no injected faults.
func NewStream[T any](records ...T) *Stream[T] {
	return &Stream[T]{records: records, TimeoutAt: -1, HangAt: -1, done: make(chan struct{})}
}

func (s *Stream[T]) Next(time.Duration) (T, error) {
	var zero T
	select {
	case <-s.done:
		return zero, provider.ErrDisposed
	default:
	}
	if s.pos == s.HangAt {
		if s.Hanging != nil {
			s.Hanging <- struct{}{}
		}
		<-s.done
		return zero, provider.ErrDisposed
	}
	if s.pos == s.TimeoutAt {
		s.TimeoutAt = -1
		return zero, provider.ErrTimeout
	}
	if s.pos >= len(s.records) {
		return zero, io.EOF
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}

func (s *Stream[T]) Dispose() error {
	s.once.Do(func() {
		s.disposed.Store(true)
		close(s.done)
	})
	return nil
}

// Disposed reports whether Dispose was called.
func (s *Stream[T]) Disposed() bool { return s.disposed.Load() }
