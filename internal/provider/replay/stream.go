package replay

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"quotes-export/internal/provider"
)

const (
	defaultMaxBatch = 1024
	maxLineSize     = 1 << 20
)

// fileStream decodes a JSON-lines recording on a producer goroutine. The
// channel capacity is the batch size, so at most maxBatch records are
// decoded ahead of the consumer.
type fileStream[T any] struct {
	records chan T
	done    chan struct{}
	once    sync.Once
	err     error // set by the producer before records is closed
}

type decodeFunc[T any] func(line []byte) (T, error)

// keepFunc reports whether a record is inside the requested range and
// whether the scan may stop (records are ordered by time).
type keepFunc[T any] func(rec T) (keep, stop bool)

func openFileStream[T any](path string, maxBatch int, decode decodeFunc[T], keep keepFunc[T]) (*fileStream[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatch
	}
	s := &fileStream[T]{
		records: make(chan T, maxBatch),
		done:    make(chan struct{}),
	}
	go s.produce(f, decode, keep)
	return s, nil
}

func (s *fileStream[T]) produce(f *os.File, decode decodeFunc[T], keep keepFunc[T]) {
	defer close(s.records)
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		rec, err := decode(b)
		if err != nil {
			s.err = fmt.Errorf("%s:%d: %w", f.Name(), line, err)
			return
		}
		ok, stop := keep(rec)
		if stop {
			return
		}
		if !ok {
			continue
		}
		select {
		case s.records <- rec:
		case <-s.done:
			return
		}
	}
	if err := sc.Err(); err != nil {
		s.err = fmt.Errorf("read %s: %w", f.Name(), err)
	}
}

func (s *fileStream[T]) Next(timeout time.Duration) (T, error) {
	var zero T
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case <-s.done:
		return zero, provider.ErrDisposed
	default:
	}
	select {
	case rec, ok := <-s.records:
		if !ok {
			if s.err != nil {
				return zero, s.err
			}
			return zero, io.EOF
		}
		return rec, nil
	case <-s.done:
		return zero, provider.ErrDisposed
	case <-expired:
		return zero, provider.ErrTimeout
	}
}

func (s *fileStream[T]) Dispose() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
