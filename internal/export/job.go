// Package export runs export jobs: one job per request, each on its own
// goroutine, pulling a record stream into an encoder.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"quotes-export/internal/artifact"
	"quotes-export/internal/encoder"
	"quotes-export/internal/model"
	"quotes-export/internal/provider"
)

// Options tune a job. Zero values take the defaults.
type Options struct {
	Timeout    time.Duration // per record pull, <= 0 waits indefinitely
	MaxRetries int           // encode attempts repeated after a timeout, < 0 disables
	RetryDelay time.Duration // first backoff, doubled per retry
	ChunkSize  int
	VWAPBatch  int
	Buffer     int // message channel capacity
	Logger     *slog.Logger
}

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
	DefaultBuffer     = 64
)

func (o Options) withDefaults() Options {
	if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.Buffer <= 0 {
		o.Buffer = DefaultBuffer
	}
	if o.Buffer < 2 {
		o.Buffer = 2 // one progress slot plus the final message
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Job exports one request. Start it once, observe it through Messages and
// Done, and stop it with Cancel. Completion fires exactly once whatever the
// outcome.
type Job struct {
	id     string
	req    model.ExportRequest
	svc    provider.StreamOpener
	enc    encoder.Encoder
	opts   Options
	logger *slog.Logger

	guard provider.StreamGuard
	files *artifact.Set

	startOnce  sync.Once
	cancelOnce sync.Once
	cancelled  atomic.Bool

	mu       sync.Mutex
	state    State
	stop     context.CancelFunc
	err      error
	stats    encoder.Stats
	retries  int
	started  time.Time
	finished time.Time

	msgMu  sync.Mutex
	msgs   chan string
	closed bool
	done   chan struct{}
}

// NewJob validates req and prepares a job on the shared service.
func NewJob(req model.ExportRequest, svc provider.StreamOpener, opts Options) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	enc, err := encoder.New(req.Format)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	id := uuid.NewString()
	logger := opts.Logger.With(
		"job_id", id,
		"symbol", req.Symbol,
		"series", string(req.Series),
		"format", string(req.Format),
	)
	return &Job{
		id:     id,
		req:    req,
		svc:    svc,
		enc:    enc,
		opts:   opts,
		logger: logger,
		files:  artifact.NewSet(),
		msgs:   make(chan string, opts.Buffer),
		done:   make(chan struct{}),
	}, nil
}

func (j *Job) ID() string                   { return j.id }
func (j *Job) Request() model.ExportRequest { return j.req }

// Messages delivers free-text progress. It is closed after the last message
// and before Done. Progress is dropped while the buffer is full; one slot is
// kept for the final outcome message.
func (j *Job) Messages() <-chan string { return j.msgs }

// Done is closed once the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job is terminal and returns the final state.
func (j *Job) Wait() State {
	<-j.done
	return j.State()
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Err is the failure cause of a Failed job.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *Job) Stats() encoder.Stats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stats
}

// Retries is the number of encode attempts repeated after a timeout.
func (j *Job) Retries() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.retries
}

// Duration is the running time of a finished job.
func (j *Job) Duration() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started.IsZero() || j.finished.IsZero() {
		return 0
	}
	return j.finished.Sub(j.started)
}

// Start runs the job on its own goroutine. Later calls, and calls after
// Cancel, are no-ops.
func (j *Job) Start(ctx context.Context) {
	j.startOnce.Do(func() {
		j.mu.Lock()
		if j.state != StateIdle {
			j.mu.Unlock()
			return
		}
		j.state = StateRunning
		j.started = time.Now()
		parent := ctx
		ctx, j.stop = context.WithCancel(ctx)
		j.mu.Unlock()

		// Cancelling the caller's context is a cancellation, not a failure.
		stopAfter := context.AfterFunc(parent, j.Cancel)
		j.logger.Debug("job started")
		go func() {
			defer stopAfter()
			j.run(ctx)
		}()
	})
}

// Cancel stops the job. It disposes the active stream and removes every
// temporary file before returning; the job then reaches Cancelled. Further
// progress messages are suppressed. Cancelling an idle job completes it.
func (j *Job) Cancel() {
	j.cancelOnce.Do(func() {
		j.mu.Lock()
		state := j.state
		if state.Terminal() {
			j.mu.Unlock()
			return
		}
		j.cancelled.Store(true)
		if state == StateIdle {
			j.state = StateCancelled
			j.mu.Unlock()
			j.closeMessages()
			j.files.Close()
			close(j.done)
			j.logger.Debug("job cancelled before start")
			return
		}
		stop := j.stop
		j.mu.Unlock()

		j.closeMessages()
		stop()
		j.guard.Dispose()
		if err := j.files.Close(); err != nil {
			j.logger.Warn("remove temporary files", "error", err)
		}
	})
}

func (j *Job) run(ctx context.Context) {
	defer j.stop()

	j.message("%s: exporting %s %s to %s", j.req.Symbol, j.req.Series, j.req.Format, j.req.Dir)
	stats, err := j.encode(ctx)

	if err != nil && ctx.Err() != nil {
		// The context may end before the AfterFunc cancel has run; settle
		// the cleanup here so Done never fires with temp files left.
		j.cancelled.Store(true)
		if cerr := j.files.Close(); cerr != nil {
			j.logger.Warn("remove temporary files", "error", cerr)
		}
	}

	state := StateCompleted
	switch {
	case j.cancelled.Load():
		state, err = StateCancelled, nil
	case err != nil:
		state = StateFailed
		j.finalMessage("%s: %v", j.req.Symbol, err)
		j.logger.Error("job failed", "error", err)
	default:
		j.finalMessage("%s: done, %d rows, %d bytes", j.req.Symbol, stats.Rows, stats.Bytes)
	}

	j.mu.Lock()
	j.state, j.err, j.stats = state, err, stats
	j.finished = time.Now()
	j.mu.Unlock()

	j.logger.Debug("job finished", "state", state.String(), "rows", stats.Rows)
	j.closeMessages()
	close(j.done)
}

// encode runs the encoder, repeating the whole encode step after a stream
// timeout at most MaxRetries times with exponential backoff.
func (j *Job) encode(ctx context.Context) (encoder.Stats, error) {
	if err := j.enc.Supports(j.req.Series); err != nil {
		return encoder.Stats{}, err
	}
	delay := j.opts.RetryDelay
	for attempt := 0; ; attempt++ {
		stats, err := j.enc.Encode(ctx, j.env())
		if err == nil || !errors.Is(err, provider.ErrTimeout) || j.cancelled.Load() {
			return stats, err
		}
		if attempt >= j.opts.MaxRetries {
			return stats, fmt.Errorf("gave up after %d retries: %w", attempt, err)
		}
		if aerr := j.files.Abort(); aerr != nil {
			j.logger.Warn("remove partial artifacts", "error", aerr)
		}

		j.mu.Lock()
		j.retries++
		j.mu.Unlock()
		j.message("%s: stream timeout, retry %d/%d in %s", j.req.Symbol, attempt+1, j.opts.MaxRetries, delay)
		j.logger.Warn("stream timeout, retrying", "attempt", attempt+1, "delay", delay)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return stats, ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}

func (j *Job) env() *encoder.Env {
	return &encoder.Env{
		Request:   j.req,
		Service:   j.svc,
		Guard:     &j.guard,
		Files:     j.files,
		Timeout:   j.opts.Timeout,
		ChunkSize: j.opts.ChunkSize,
		VWAPBatch: j.opts.VWAPBatch,
		Progress:  func(s string) { j.message("%s", s) },
		Logger:    j.logger,
	}
}

// message sends progress, dropping it when only the slot kept for the final
// message is left.
func (j *Job) message(format string, args ...any) {
	j.send(fmt.Sprintf(format, args...), false)
}

// finalMessage is the last message of a run. It may use the reserved slot,
// so the outcome reaches the consumer however slow it is.
func (j *Job) finalMessage(format string, args ...any) {
	j.send(fmt.Sprintf(format, args...), true)
}

func (j *Job) send(msg string, final bool) {
	j.msgMu.Lock()
	defer j.msgMu.Unlock()
	if j.closed || j.cancelled.Load() {
		return
	}
	if !final && len(j.msgs) >= cap(j.msgs)-1 {
		j.logger.Debug("message dropped, buffer full")
		return
	}
	select {
	case j.msgs <- msg:
	default:
		j.logger.Warn("final message dropped", "message", msg)
	}
}

func (j *Job) closeMessages() {
	j.msgMu.Lock()
	defer j.msgMu.Unlock()
	if !j.closed {
		j.closed = true
		close(j.msgs)
	}
}
