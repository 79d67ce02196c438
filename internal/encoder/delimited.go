package encoder

import (
	"context"
	"path/filepath"

	"quotes-export/internal/model"
)

// DelimitedText writes one ';'-separated text file with a header row.
type DelimitedText struct{}

func (DelimitedText) Extension() string { return "csv" }

func (DelimitedText) Supports(series model.Series) error {
	if series == model.SeriesVWAP {
		return &UnsupportedFormatError{Format: model.FormatCSV, Series: series}
	}
	return nil
}

func (d DelimitedText) Encode(ctx context.Context, env *Env) (Stats, error) {
	req := env.Request
	if err := d.Supports(req.Series); err != nil {
		return Stats{}, err
	}
	out := newFileOutput(env, filepath.Join(req.Dir, req.FileName(d.Extension())))

	var rows int64
	var err error
	if req.Series == model.SeriesBars {
		rows, err = writeBarsText(ctx, env, req.Side, out.open)
	} else {
		rows, err = writeQuotesText(ctx, env, out.open)
	}
	if err != nil {
		out.abort()
		return Stats{Rows: rows}, err
	}
	if !out.opened() {
		env.progress("%s: no data in range", req.Symbol)
		return Stats{}, nil
	}
	size, err := out.commit()
	if err != nil {
		return Stats{Rows: rows}, err
	}
	return Stats{Rows: rows, Bytes: size, Entries: 1}, nil
}

func writeQuotesText(ctx context.Context, env *Env, open opener) (int64, error) {
	s, err := openQuotes(ctx, env)
	if err != nil {
		return 0, err
	}
	text := newQuoteText(open, !env.Request.Level2(), env.Request.Levels)
	rows, err := pull(ctx, env, s, text.write)
	if err != nil {
		return rows, err
	}
	return rows, text.flush()
}

func writeBarsText(ctx context.Context, env *Env, side model.Side, open opener) (int64, error) {
	s, err := openBars(ctx, env, side)
	if err != nil {
		return 0, err
	}
	text := &barText{open: open}
	rows, err := pull(ctx, env, s, text.write)
	if err != nil {
		return rows, err
	}
	return rows, text.flush()
}
