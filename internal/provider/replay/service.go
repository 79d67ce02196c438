// Package replay implements provider.QuoteService over recorded sessions on
// disk. The layout under the root directory is
//
//	{SYMBOL}/ticks.jsonl                top-of-book quotes
//	{SYMBOL}/level2.jsonl               full depth quotes
//	{SYMBOL}/bars_{bid|ask}_{PERIOD}.jsonl
//	{SYMBOL}/vwap_{±NN}.jsonl           one file per depth exponent
//
// Records in each file are ordered by time.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"quotes-export/internal/model"
	"quotes-export/internal/provider"
)

// Service replays recorded sessions. Streams are independent, so any number
// of jobs may share one Service.
type Service struct {
	logger *slog.Logger

	mu        sync.RWMutex
	root      string
	connected bool
	loggedIn  bool
}

var _ provider.QuoteService = (*Service)(nil)

// NewService creates a disconnected replay service.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger.With("component", "replay")}
}

func (s *Service) Name() string { return "replay" }

// Connect treats address as the recording root directory.
func (s *Service) Connect(_ context.Context, address string, _ time.Duration) error {
	fi, err := os.Stat(address)
	if err != nil {
		return &provider.ConnectionError{Address: address, Err: err}
	}
	if !fi.IsDir() {
		return &provider.ConnectionError{Address: address, Err: errors.New("not a directory")}
	}
	s.mu.Lock()
	s.root = address
	s.connected = true
	s.mu.Unlock()
	s.logger.Info("connected", "root", address)
	return nil
}

// Login accepts any non-empty login on a connected service.
func (s *Service) Login(_ context.Context, creds provider.Credentials, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return &provider.AuthError{Login: creds.Login, Err: errors.New("not connected")}
	}
	if strings.TrimSpace(creds.Login) == "" {
		return &provider.AuthError{Login: creds.Login, Err: errors.New("empty login")}
	}
	s.loggedIn = true
	return nil
}

// ListSymbols returns the recorded symbol directories, sorted.
func (s *Service) ListSymbols(context.Context, time.Duration) ([]string, error) {
	root, err := s.session()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) Disconnect() error {
	s.mu.Lock()
	s.connected, s.loggedIn = false, false
	s.mu.Unlock()
	s.logger.Info("disconnected")
	return nil
}

func (s *Service) OpenQuoteStream(_ context.Context, symbol string, depth provider.Depth, from, to time.Time, maxBatch int) (provider.RecordStream[model.Quote], error) {
	root, err := s.session()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(root, symbol)
	path := filepath.Join(dir, "level2.jsonl")
	if depth == provider.DepthTop {
		if ticks := filepath.Join(dir, "ticks.jsonl"); fileExists(ticks) {
			path = ticks
		}
	}
	decode := decodeQuote
	if depth == provider.DepthTop {
		decode = func(line []byte) (model.Quote, error) {
			q, err := decodeQuote(line)
			return q.Top(), err
		}
	}
	st, err := openFileStream[model.Quote](path, maxBatch, decode, quoteRange(from, to))
	if err != nil {
		return nil, fmt.Errorf("open quotes %s: %w", symbol, err)
	}
	return st, nil
}

func (s *Service) OpenBarStream(_ context.Context, symbol string, side model.Side, period model.BarPeriod, from, to time.Time, maxBatch int) (provider.RecordStream[model.Bar], error) {
	root, err := s.session()
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("bars_%s_%s.jsonl", strings.ToLower(side.String()), period)
	decode := func(line []byte) (model.Bar, error) { return decodeBar(line, side) }
	keep := func(b model.Bar) (bool, bool) { return inRange(b.From, from, to) }
	st, err := openFileStream[model.Bar](filepath.Join(root, symbol, name), maxBatch, decode, keep)
	if err != nil {
		return nil, fmt.Errorf("open bars %s %s %s: %w", symbol, side, period, err)
	}
	return st, nil
}

func (s *Service) OpenVWAPStream(_ context.Context, symbol string, exponent int, from, to time.Time, maxBatch int) (provider.RecordStream[model.Quote], error) {
	root, err := s.session()
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("vwap_%+03d.jsonl", exponent)
	st, err := openFileStream[model.Quote](filepath.Join(root, symbol, name), maxBatch, decodeQuote, quoteRange(from, to))
	if err != nil {
		return nil, fmt.Errorf("open vwap %s exponent %d: %w", symbol, exponent, err)
	}
	return st, nil
}

func (s *Service) session() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected || !s.loggedIn {
		return "", errors.New("replay: not logged in")
	}
	return s.root, nil
}

func quoteRange(from, to time.Time) keepFunc[model.Quote] {
	return func(q model.Quote) (bool, bool) { return inRange(q.Time, from, to) }
}

func inRange(t, from, to time.Time) (keep, stop bool) {
	if !t.Before(to) {
		return false, true
	}
	return !t.Before(from), false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
