package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

func runLogWriter(w io.Writer, lines <-chan string) {
	for s := range lines {
		fmt.Fprintln(w, s)
	}
}

// forwardMessages drains a job's progress into the fan-in logger until the
// job closes its channel.
func forwardMessages(job *Job, logger *slog.Logger) {
	req := job.Request()
	for m := range job.Messages() {
		logger.Info(m, "job_id", job.ID(), "symbol", req.Symbol, "series", string(req.Series))
	}
}

// runHeartbeat logs how many jobs are done. It only reads job state, so no
// counter is shared between jobs.
func runHeartbeat(ctx context.Context, interval time.Duration, jobs []*Job, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var done, failed, running int
			var rows int64
			for _, j := range jobs {
				switch s := j.State(); {
				case s == StateRunning:
					running++
				case s.Terminal():
					done++
					if s == StateFailed {
						failed++
					}
					rows += j.Stats().Rows
				}
			}
			logger.Info("heartbeat", "done", done, "total", len(jobs), "running", running, "failed", failed, "rows", rows)
		}
	}
}
