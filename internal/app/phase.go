package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"quotes-export/internal/export"
	"quotes-export/internal/metrics"
	"quotes-export/internal/model"
)

// RunFlow runs every request to completion. SIGINT/SIGTERM cancel all jobs;
// a second signal is left to the default handler. Metrics go to the
// textfile once the run is over.
func RunFlow(ctx context.Context, cfg *Config, runner *export.Runner, m *metrics.Export, reqs []model.ExportRequest) export.Summary {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	stop := make(chan struct{})
	go func() {
		select {
		case sig := <-signals:
			slog.Info("received signal, cancelling exports", "sig", sig)
			signal.Stop(signals)
			runner.Cancel()
		case <-stop:
		}
	}()
	defer func() {
		close(stop)
		signal.Stop(signals)
	}()

	summary := runner.Run(ctx, reqs)
	slog.Info("run finished", "completed", summary.Completed, "cancelled", summary.Cancelled,
		"failed", summary.Failed, "rows", summary.Rows, "bytes", summary.Bytes)
	if summary.Dropped > 0 {
		slog.Warn("log lines dropped", "count", summary.Dropped)
	}

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Warn("could not write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
		} else {
			slog.Info("metrics textfile written", "path", cfg.Metrics.Textfile)
		}
	}
	return summary
}

// ExitCode is 0 when every job completed, 1 when any failed and 130 when
// the run was cancelled without failures.
func ExitCode(s export.Summary) int {
	switch {
	case s.Failed > 0:
		return 1
	case s.Cancelled > 0:
		return 130
	default:
		return 0
	}
}
