package provider

import (
	"log/slog"
	"sync"
)

// Disposer is the part of a RecordStream a StreamGuard needs.
type Disposer interface {
	Dispose() error
}

// StreamGuard tracks the stream a job is currently draining so that a
// cancellation from another goroutine can dispose it. Once the guard is
// disposed every stream handed to Hold is disposed immediately.
type StreamGuard struct {
	mu       sync.Mutex
	active   Disposer
	disposed bool
}

// Hold registers s as the active stream. It returns ErrDisposed (after
// disposing s) when the guard was already disposed.
func (g *StreamGuard) Hold(s Disposer) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.disposed {
		dispose(s)
		return ErrDisposed
	}
	g.active = s
	return nil
}

// Release disposes s and forgets it if it is still the active stream.
func (g *StreamGuard) Release(s Disposer) {
	g.mu.Lock()
	if g.active == s {
		g.active = nil
	}
	g.mu.Unlock()
	dispose(s)
}

// Dispose disposes the active stream, unblocking a pending pull, and marks
// the guard so later streams are refused.
func (g *StreamGuard) Dispose() {
	g.mu.Lock()
	g.disposed = true
	s := g.active
	g.active = nil
	g.mu.Unlock()
	if s != nil {
		dispose(s)
	}
}

// Disposed reports whether Dispose was called.
func (g *StreamGuard) Disposed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.disposed
}

func dispose(s Disposer) {
	if err := s.Dispose(); err != nil {
		slog.Debug("dispose record stream", "error", err)
	}
}
