package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"quotes-export/internal/provider"
)

// Session is a connected, logged-in quote service. Connection and login
// failures are fatal for the whole run.
type Session struct {
	Service provider.QuoteService
	Address string
}

// OpenSession connects and logs in. Close disconnects.
func OpenSession(ctx context.Context, cfg *Config, svc provider.QuoteService) (*Session, error) {
	if err := svc.Connect(ctx, cfg.Service.Address, cfg.Service.ConnectTimeout); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	creds := provider.Credentials{Login: cfg.Service.Login, Password: cfg.Service.Password}
	if err := svc.Login(ctx, creds, cfg.Service.ConnectTimeout); err != nil {
		_ = svc.Disconnect()
		return nil, fmt.Errorf("open session: %w", err)
	}
	slog.Info("quote service connected", "provider", svc.Name(), "address", cfg.Service.Address)
	return &Session{Service: svc, Address: cfg.Service.Address}, nil
}

func (s *Session) Close() {
	if err := s.Service.Disconnect(); err != nil {
		slog.Warn("disconnect failed", "error", err)
		return
	}
	slog.Info("quote service disconnected")
}

// ResolveSymbols returns the symbols to export: the symbols file when set,
// every listed symbol for "*", else the "|" separated list.
func ResolveSymbols(ctx context.Context, cfg *Config, sess *Session) ([]string, error) {
	if cfg.Export.SymbolsFile != "" {
		slog.Info("reading symbols from file", "path", cfg.Export.SymbolsFile)
		return provider.LoadSymbolsFromFile(cfg.Export.SymbolsFile)
	}
	if strings.TrimSpace(cfg.Export.Symbols) == "*" {
		syms, err := sess.Service.ListSymbols(ctx, cfg.Service.ConnectTimeout)
		if err != nil {
			return nil, fmt.Errorf("list symbols: %w", err)
		}
		return syms, nil
	}
	syms := provider.ParseSymbols(cfg.Export.Symbols)
	if len(syms) == 0 {
		return nil, fmt.Errorf("no symbols in %q", cfg.Export.Symbols)
	}
	return syms, nil
}
