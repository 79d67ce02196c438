// Package encoder turns record streams into output artifacts. One encoder
// call produces one artifact; an Env carries everything a single job owns.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"quotes-export/internal/artifact"
	"quotes-export/internal/chunked"
	"quotes-export/internal/model"
	"quotes-export/internal/provider"
)

// DefaultVWAPBatch is the reduced upstream batch size of VWAP sub-requests.
const DefaultVWAPBatch = 100

// Encoder writes the artifact of one export request.
type Encoder interface {
	Encode(ctx context.Context, env *Env) (Stats, error)
	// Supports returns an *UnsupportedFormatError when the output cannot
	// represent the series. It is checked before any I/O.
	Supports(series model.Series) error
	Extension() string
}

// Env is the per-job state an encoder works with.
type Env struct {
	Request   model.ExportRequest
	Service   provider.StreamOpener
	Guard     *provider.StreamGuard
	Files     *artifact.Set
	Timeout   time.Duration // per pull, <= 0 waits indefinitely
	ChunkSize int
	VWAPBatch int
	Progress  func(string)
	Logger    *slog.Logger
}

func (e *Env) progress(format string, args ...any) {
	if e.Progress != nil {
		e.Progress(fmt.Sprintf(format, args...))
	}
}

func (e *Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Env) chunkSize() int {
	if e.ChunkSize > 0 {
		return e.ChunkSize
	}
	return chunked.DefaultChunkSize
}

func (e *Env) vwapBatch() int {
	if e.VWAPBatch > 0 {
		return e.VWAPBatch
	}
	return DefaultVWAPBatch
}

// Stats are the totals of one encode.
type Stats struct {
	Rows    int64
	Bytes   int64
	Entries int
	Skipped int // VWAP exponents that failed to open
}

// New returns the encoder for format.
func New(format model.Format) (Encoder, error) {
	switch format {
	case model.FormatCSV:
		return DelimitedText{}, nil
	case model.FormatParquet:
		return ChunkedArray{}, nil
	case model.FormatZip:
		return TextArchive{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (use csv, parquet or zip)", format)
	}
}

// UnsupportedFormatError rejects a series the output format cannot hold.
type UnsupportedFormatError struct {
	Format model.Format
	Series model.Series
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s output cannot hold %s series", e.Format, e.Series)
}

// ErrPartialDegree matches every PartialDegreeError.
var ErrPartialDegree = errors.New("vwap sub-request failed")

// PartialDegreeError is a VWAP exponent that could not be opened. The
// exponent is skipped and the export continues.
type PartialDegreeError struct {
	Exponent int
	Err      error
}

func (e *PartialDegreeError) Error() string {
	return fmt.Sprintf("vwap exponent %+03d skipped: %v", e.Exponent, e.Err)
}

func (e *PartialDegreeError) Unwrap() error { return e.Err }

func (e *PartialDegreeError) Is(target error) bool { return target == ErrPartialDegree }
