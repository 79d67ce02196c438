package encoder

import (
	"context"
	"io"
	"path/filepath"

	"quotes-export/internal/archive"
	"quotes-export/internal/model"
)

// TextArchive writes a zip of delimited text entries: one for a quote series,
// one per side for bars and one per depth exponent for VWAP.
type TextArchive struct{}

func (TextArchive) Extension() string { return "zip" }

func (TextArchive) Supports(model.Series) error { return nil }

func (a TextArchive) Encode(ctx context.Context, env *Env) (Stats, error) {
	req := env.Request
	zw, err := archive.CreateTracked(filepath.Join(req.Dir, req.FileName(a.Extension())), env.Files)
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	switch req.Series {
	case model.SeriesVWAP:
		fan := VWAPFanout{Exponents: req.VWAPExponents, MaxBatch: env.vwapBatch()}
		st, err = fan.Run(ctx, env, zw)
	case model.SeriesBars:
		for _, side := range model.Sides {
			var rows int64
			rows, err = barEntry(ctx, env, zw, side)
			st.Rows += rows
			if err != nil {
				break
			}
		}
	default:
		st.Rows, err = quoteEntry(ctx, env, zw)
	}
	if err != nil {
		zw.Abort()
		return st, err
	}

	if st.Bytes, err = zw.Finish(); err != nil {
		return st, err
	}
	st.Entries = zw.Entries()
	return st, nil
}

func quoteEntry(ctx context.Context, env *Env, zw *archive.Writer) (int64, error) {
	req := env.Request
	s, err := openQuotes(ctx, env)
	if err != nil {
		return 0, err
	}
	open := func() (io.Writer, error) { return zw.BeginEntry(req.EntryName(req.Side)) }
	text := newQuoteText(open, !req.Level2(), req.Levels)
	rows, err := pull(ctx, env, s, text.write)
	if err == nil {
		err = text.ensureHeader()
	}
	if err == nil {
		err = text.flush()
	}
	if err != nil {
		return rows, err
	}
	return rows, zw.EndEntry()
}

func barEntry(ctx context.Context, env *Env, zw *archive.Writer, side model.Side) (int64, error) {
	s, err := openBars(ctx, env, side)
	if err != nil {
		return 0, err
	}
	text := &barText{open: func() (io.Writer, error) { return zw.BeginEntry(env.Request.EntryName(side)) }}
	rows, err := pull(ctx, env, s, text.write)
	if err == nil {
		err = text.ensureHeader()
	}
	if err == nil {
		err = text.flush()
	}
	if err != nil {
		return rows, err
	}
	return rows, zw.EndEntry()
}
