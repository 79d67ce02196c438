// Package artifact tracks the temporary files of one export job. Every output
// is written under a temporary name and renamed into place on success, so a
// cancelled or failed job leaves no partial file behind.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrClosed is returned once the set has been closed by a cancellation.
var ErrClosed = errors.New("artifact set closed")

// Set is safe for concurrent use: the owning job writes through it while
// Close may run from the cancelling goroutine.
type Set struct {
	mu     sync.Mutex
	temps  map[string]string // temp path -> final path, "" for scratch files
	closed bool
}

func NewSet() *Set {
	return &Set{temps: make(map[string]string)}
}

// Create opens a temporary file next to final that Commit will rename to final.
func (s *Set) Create(final string) (*os.File, error) {
	return s.create(filepath.Dir(final), "."+filepath.Base(final)+".*.part", final)
}

// Scratch opens a temporary file in dir that is never committed. It is
// removed by Remove, Abort or Close.
func (s *Set) Scratch(dir, pattern string) (*os.File, error) {
	return s.create(dir, pattern, "")
}

func (s *Set) create(dir, pattern, final string) (*os.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	s.temps[f.Name()] = final
	return f, nil
}

// Commit renames temp to its final path.
func (s *Set) Commit(temp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	final, ok := s.temps[temp]
	if !ok || final == "" {
		return fmt.Errorf("artifact: %s has no final path", temp)
	}
	if err := os.Rename(temp, final); err != nil {
		return err
	}
	delete(s.temps, temp)
	return nil
}

// Remove deletes temp and stops tracking it.
func (s *Set) Remove(temp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.temps, temp)
	return removeIfExists(temp)
}

// Abort deletes every tracked file. The set stays usable, so a retried
// attempt can start over.
func (s *Set) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.abortLocked()
}

// Close deletes every tracked file and refuses further use. It returns only
// after the files are gone.
func (s *Set) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.abortLocked()
}

// Pending lists the tracked temporary files.
func (s *Set) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.temps))
	for p := range s.temps {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (s *Set) abortLocked() error {
	var errs []error
	for p := range s.temps {
		if err := removeIfExists(p); err != nil {
			errs = append(errs, err)
		}
		delete(s.temps, p)
	}
	return errors.Join(errs...)
}

func removeIfExists(p string) error {
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
