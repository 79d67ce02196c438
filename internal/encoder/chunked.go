package encoder

import (
	"context"
	"path/filepath"

	"quotes-export/internal/chunked"
	"quotes-export/internal/model"
)

// ChunkedArray writes the Quotes/DateQuotes or Bars/DataBars table as a
// parquet file, one row group per chunk.
type ChunkedArray struct{}

func (ChunkedArray) Extension() string { return "parquet" }

func (ChunkedArray) Supports(series model.Series) error {
	if series == model.SeriesVWAP {
		return &UnsupportedFormatError{Format: model.FormatParquet, Series: series}
	}
	return nil
}

func (c ChunkedArray) Encode(ctx context.Context, env *Env) (Stats, error) {
	req := env.Request
	if err := c.Supports(req.Series); err != nil {
		return Stats{}, err
	}
	out := newFileOutput(env, filepath.Join(req.Dir, req.FileName(c.Extension())))

	var rows int64
	var err error
	if req.Series == model.SeriesBars {
		rows, err = writeBarTable(ctx, env, out)
	} else {
		rows, err = writeQuoteTable(ctx, env, out)
	}
	if err != nil {
		out.abort()
		return Stats{Rows: rows}, err
	}
	if !out.opened() {
		env.progress("%s: no data in range", req.Symbol)
		return Stats{}, nil
	}
	size, err := out.commitClosed()
	if err != nil {
		return Stats{Rows: rows}, err
	}
	return Stats{Rows: rows, Bytes: size, Entries: 1}, nil
}

func writeQuoteTable(ctx context.Context, env *Env, out *fileOutput) (int64, error) {
	s, err := openQuotes(ctx, env)
	if err != nil {
		return 0, err
	}
	var (
		table     chunked.Table[chunked.QuoteRow]
		w         *chunked.Writer[chunked.QuoteRow]
		levels    = env.Request.Levels
		truncated bool
	)
	rows, err := pull(ctx, env, s, func(q model.Quote) error {
		if w == nil {
			if !env.Request.Level2() {
				levels = 1
			} else if levels == 0 {
				levels = max(len(q.Bids), len(q.Asks), 1)
			}
			if _, err := out.open(); err != nil {
				return err
			}
			var err error
			if table, err = chunked.NewQuoteTable(out.f, levels, env.chunkSize()); err != nil {
				return err
			}
			w = chunked.NewWriter(table, env.chunkSize())
		}
		row, cut := chunked.NewQuoteRow(q, levels)
		if cut && !truncated {
			truncated = true
			env.progress("%s: book deeper than %d levels truncated", env.Request.Symbol, levels)
		}
		return w.Append(row)
	})
	return rows, finishTable(w, table, err)
}

func writeBarTable(ctx context.Context, env *Env, out *fileOutput) (int64, error) {
	s, err := openBars(ctx, env, env.Request.Side)
	if err != nil {
		return 0, err
	}
	var (
		table chunked.Table[chunked.BarRow]
		w     *chunked.Writer[chunked.BarRow]
	)
	rows, err := pull(ctx, env, s, func(b model.Bar) error {
		if w == nil {
			if _, err := out.open(); err != nil {
				return err
			}
			var err error
			if table, err = chunked.NewBarTable(out.f, env.chunkSize()); err != nil {
				return err
			}
			w = chunked.NewWriter(table, env.chunkSize())
		}
		return w.Append(chunked.NewBarRow(b))
	})
	return rows, finishTable(w, table, err)
}

// finishTable flushes the last partial chunk and closes the table. On error
// the table is closed and the caller removes the file.
func finishTable[R any](w *chunked.Writer[R], table chunked.Table[R], err error) error {
	if w == nil {
		return err
	}
	if err == nil {
		err = w.Finalize()
	}
	if cerr := table.Close(); err == nil {
		err = cerr
	}
	return err
}
