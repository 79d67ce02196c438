//go:build wireinject
// +build wireinject

package main

import (
	"context"
	"log/slog"

	"github.com/google/wire"

	"quotes-export/internal/app"
	"quotes-export/internal/export"
	"quotes-export/internal/metrics"
	"quotes-export/internal/provider"
	"quotes-export/internal/provider/replay"
)

// App holds application dependencies built by Wire.
type App struct {
	Config  *app.Config
	Logger  *slog.Logger
	Session *app.Session
	Runner  *export.Runner
	Metrics *metrics.Export
}

// InitializeApp loads config, opens the quote service session and builds the
// runner. The cleanup disconnects the session.
func InitializeApp(ctx context.Context) (*App, func(), error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideLogger,
		app.ProvideReplayService,
		wire.Bind(new(provider.QuoteService), new(*replay.Service)),
		app.ProvideSession,
		app.ProvideStreamOpener,
		app.ProvideMetrics,
		app.ProvideRunner,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
