package export

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"quotes-export/internal/encoder"
	"quotes-export/internal/metrics"
	"quotes-export/internal/model"
	"quotes-export/internal/provider"
	"quotes-export/internal/slogx"
)

const dateLayout = "2006-01-02"

// RunnerOptions configure a Runner.
type RunnerOptions struct {
	Job          Options
	Parallel     int           // jobs running at once, <= 0 is unlimited
	Heartbeat    time.Duration // <= 0 disables it
	ReportDir    string        // run report directory, "" skips the report
	ProgressPath string        // progress ledger, "" skips it
	LogLevel     string        // level of the fan-in logger
	Output       io.Writer     // fan-in log lines, default stdout
	Metrics      *metrics.Export
}

// Runner starts one job per request on a shared, authenticated service and
// aggregates their results once every job has finished.
type Runner struct {
	svc  provider.StreamOpener
	opts RunnerOptions

	mu        sync.Mutex
	jobs      []*Job
	cancelled bool
}

func NewRunner(svc provider.StreamOpener, opts RunnerOptions) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Runner{svc: svc, opts: opts}
}

// Result is the outcome of one request.
type Result struct {
	JobID    string
	Request  model.ExportRequest
	State    State
	Stats    encoder.Stats
	Retries  int
	Duration time.Duration
	Err      error
}

// Summary holds the per-job results and their totals.
type Summary struct {
	Results   []Result
	Completed int
	Cancelled int
	Failed    int
	Rows      int64
	Bytes     int64
	Retries   int
	Skipped   int
	Dropped   int64 // fan-in log lines lost to a full buffer
}

// Run executes reqs and blocks until every job is terminal. A request that
// does not validate is reported as failed without affecting the others.
// Cancelling ctx cancels every job.
func (r *Runner) Run(ctx context.Context, reqs []model.ExportRequest) Summary {
	logs := make(chan string, 2048)
	logger, lines := slogx.NewChanLogger(logs, r.opts.LogLevel)
	var logWg sync.WaitGroup
	logWg.Add(1)
	go func() {
		defer logWg.Done()
		runLogWriter(r.opts.Output, logs)
	}()

	jobOpts := r.opts.Job
	if jobOpts.Logger == nil {
		jobOpts.Logger = logger
	}
	var jobs []*Job
	var results []Result
	for _, req := range reqs {
		job, err := NewJob(req, r.svc, jobOpts)
		if err != nil {
			logger.Error("request rejected", "symbol", req.Symbol, "error", err)
			results = append(results, Result{Request: req, State: StateFailed, Err: err})
			continue
		}
		jobs = append(jobs, job)
	}

	r.mu.Lock()
	r.jobs = jobs
	cancelled := r.cancelled
	r.mu.Unlock()
	if cancelled {
		r.Cancel()
	}
	stopOnDone := context.AfterFunc(ctx, r.Cancel)
	defer stopOnDone()

	logger.Info("jobs to export", "jobs", len(jobs), "rejected", len(results), "parallel", r.opts.Parallel)

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	go runHeartbeat(hbCtx, r.opts.Heartbeat, jobs, logger)

	var g errgroup.Group
	if r.opts.Parallel > 0 {
		g.SetLimit(r.opts.Parallel)
	}
	for _, job := range jobs {
		g.Go(func() error {
			job.Start(ctx)
			forwardMessages(job, logger)
			job.Wait()
			return nil
		})
	}
	g.Wait()
	stopHeartbeat()

	for _, job := range jobs {
		results = append(results, Result{
			JobID:    job.ID(),
			Request:  job.Request(),
			State:    job.State(),
			Stats:    job.Stats(),
			Retries:  job.Retries(),
			Duration: job.Duration(),
			Err:      job.Err(),
		})
	}

	summary := r.finish(results, logger)
	summary.Dropped = lines.Dropped()

	// A Cancel still in flight may log through the jobs; wait it out.
	r.mu.Lock()
	r.jobs = nil
	r.mu.Unlock()
	close(logs)
	logWg.Wait()
	return summary
}

// Cancel cancels every job of the current run. Jobs not yet started finish
// as Cancelled without running.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = true
	for _, j := range r.jobs {
		j.Cancel()
	}
}

// finish aggregates the results, feeds metrics and writes the run report and
// progress ledger.
func (r *Runner) finish(results []Result, logger *slog.Logger) Summary {
	var (
		s           = Summary{Results: results}
		successList []string
		failedList  []failedEntry
		rowsPerSym  = make(map[string]int64)
		progress    []ProgressUpdate
	)
	for _, res := range results {
		req := res.Request
		s.Rows += res.Stats.Rows
		s.Bytes += res.Stats.Bytes
		s.Retries += res.Retries
		s.Skipped += res.Stats.Skipped
		rowsPerSym[req.Symbol] += res.Stats.Rows

		switch res.State {
		case StateCompleted:
			s.Completed++
			if res.Stats.Entries > 0 {
				successList = appendSuccess(successList, req.FileName(string(req.Format)))
			}
			progress = append(progress, ProgressUpdate{
				Key:  ProgressKey(req),
				Date: req.To.UTC().Format(dateLayout),
			})
		case StateCancelled:
			s.Cancelled++
			failedList = append(failedList, newFailedEntry(req, "cancelled"))
		default:
			s.Failed++
			reason := "failed"
			if res.Err != nil {
				reason = res.Err.Error()
			}
			failedList = append(failedList, newFailedEntry(req, reason))
		}

		if res.JobID != "" {
			r.opts.Metrics.Observe(metrics.Job{
				State:    res.State.String(),
				Format:   string(req.Format),
				Rows:     res.Stats.Rows,
				Bytes:    res.Stats.Bytes,
				Retries:  res.Retries,
				Skipped:  res.Stats.Skipped,
				Duration: res.Duration,
			})
		}
	}

	logger.Info("summary", "total_rows", s.Rows, "bytes", s.Bytes,
		"completed", s.Completed, "cancelled", s.Cancelled, "failed", s.Failed, "retries", s.Retries)
	symbols := make([]string, 0, len(rowsPerSym))
	for sym := range rowsPerSym {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		logger.Info("summary symbol", "symbol", sym, "rows", rowsPerSym[sym])
	}
	if len(failedList) > 0 {
		logger.Info("summary failed", "count", len(failedList), "reasons", joinFailedReasons(failedList))
	}

	if r.opts.ReportDir != "" && (len(successList) > 0 || len(failedList) > 0) {
		if err := writeRunReport(r.opts.ReportDir, successList, failedList); err != nil {
			logger.Warn("could not write run report", "error", err)
		} else {
			logger.Info("run report saved", "success", len(successList), "failed", len(failedList))
		}
	}
	if r.opts.ProgressPath != "" && len(progress) > 0 {
		updates := make(chan ProgressUpdate, len(progress))
		for _, u := range progress {
			updates <- u
		}
		close(updates)
		RunProgressWriter(r.opts.ProgressPath, updates)
	}
	return s
}

func newFailedEntry(req model.ExportRequest, reason string) failedEntry {
	return failedEntry{
		Symbol:    req.Symbol,
		Series:    string(req.Series),
		Format:    string(req.Format),
		DateRange: req.From.UTC().Format(dateLayout) + ".." + req.To.UTC().Format(dateLayout),
		Reason:    reason,
	}
}
