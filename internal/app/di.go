package app

import (
	"context"
	"log/slog"

	"quotes-export/internal/export"
	"quotes-export/internal/metrics"
	"quotes-export/internal/provider"
	"quotes-export/internal/provider/replay"
	"quotes-export/internal/slogx"
)

// ProvideConfig loads config from file and environment (for Wire).
func ProvideConfig() (*Config, error) {
	return LoadConfig()
}

// ProvideLogger builds the process logger and installs it as the default.
func ProvideLogger(cfg *Config) *slog.Logger {
	logger := slogx.NewDefault(cfg.Logging.Level)
	slog.SetDefault(logger)
	return logger
}

// ProvideReplayService creates the file-backed quote service (for Wire).
func ProvideReplayService(logger *slog.Logger) *replay.Service {
	return replay.NewService(logger)
}

// ProvideSession connects and logs in. The cleanup disconnects.
func ProvideSession(ctx context.Context, cfg *Config, svc provider.QuoteService) (*Session, func(), error) {
	sess, err := OpenSession(ctx, cfg, svc)
	if err != nil {
		return nil, nil, err
	}
	return sess, sess.Close, nil
}

// ProvideStreamOpener paces stream opens on the session (for Wire).
func ProvideStreamOpener(cfg *Config, sess *Session) provider.StreamOpener {
	return provider.NewRateLimited(sess.Service, cfg.Service.RateLimit.RPS, cfg.Service.RateLimit.Burst)
}

func ProvideMetrics() *metrics.Export {
	return metrics.New()
}

// ProvideRunner creates the export runner from config (for Wire).
func ProvideRunner(cfg *Config, svc provider.StreamOpener, m *metrics.Export) *export.Runner {
	return export.NewRunner(svc, RunnerOptions(cfg, m))
}

// RunnerOptions maps config onto runner options.
func RunnerOptions(cfg *Config, m *metrics.Export) export.RunnerOptions {
	return export.RunnerOptions{
		Job: export.Options{
			Timeout:    cfg.Export.StreamTimeout,
			MaxRetries: cfg.Export.MaxRetries,
			RetryDelay: cfg.Export.RetryDelay,
			ChunkSize:  cfg.Export.ChunkSize,
			VWAPBatch:  cfg.Export.VWAPBatch,
		},
		Parallel:     cfg.Run.Parallel,
		Heartbeat:    cfg.Run.Heartbeat,
		ReportDir:    cfg.ReportDir(),
		ProgressPath: cfg.ProgressPath(),
		LogLevel:     cfg.Logging.Level,
		Metrics:      m,
	}
}
