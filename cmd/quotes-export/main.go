package main

import (
	"context"
	"log/slog"
	"os"

	"quotes-export/internal/app"
	"quotes-export/internal/export"
	"quotes-export/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()
	a, cleanup, err := InitializeApp(ctx)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer cleanup()

	cfg := a.Config
	symbols, err := app.ResolveSymbols(ctx, cfg, a.Session)
	if err != nil {
		slog.Error("failed to get symbols", "error", err)
		return 1
	}
	slog.Info("got symbols", "count", len(symbols))

	if err := os.MkdirAll(cfg.Export.Dir, 0755); err != nil {
		slog.Error("failed to create output dir", "error", err)
		return 1
	}

	var progress map[string]string
	if cfg.Export.Resume {
		progress = export.LoadProgress(cfg.ProgressPath())
	}
	reqs, err := cfg.Requests(symbols, progress)
	if err != nil {
		slog.Error("failed to build requests", "error", err)
		return 1
	}
	slog.Info("export", "requests", len(reqs), "request", cfg.Export.Request, "format", cfg.Export.Format,
		"from", cfg.Export.From, "to", cfg.Export.To, "dir", cfg.Export.Dir, "parallel", cfg.Run.Parallel)

	summary := app.RunFlow(ctx, cfg, a.Runner, a.Metrics, reqs)
	return app.ExitCode(summary)
}
