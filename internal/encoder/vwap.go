package encoder

import (
	"context"
	"io"

	"quotes-export/internal/archive"
	"quotes-export/internal/model"
	"quotes-export/internal/provider"
)

// VWAPFanout issues one VWAP sub-request per depth exponent and adds each
// result to the archive as its own entry. An exponent that fails to open is
// skipped; every configured exponent is attempted.
type VWAPFanout struct {
	Exponents []int
	MaxBatch  int
}

func (v VWAPFanout) Run(ctx context.Context, env *Env, zw *archive.Writer) (Stats, error) {
	req := env.Request
	var st Stats
	for _, exp := range v.Exponents {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		s, err := env.Service.OpenVWAPStream(ctx, req.Symbol, exp, req.From, req.To, v.MaxBatch)
		if err != nil {
			if ctx.Err() != nil {
				return st, ctx.Err()
			}
			perr := &PartialDegreeError{Exponent: exp, Err: err}
			env.logger().Warn("vwap exponent skipped", "symbol", req.Symbol, "exponent", exp, "error", err)
			env.progress("%s: %v", req.Symbol, perr)
			st.Skipped++
			continue
		}

		rows, err := v.entry(ctx, env, zw, exp, s)
		st.Rows += rows
		if err != nil {
			return st, err
		}
	}
	return st, nil
}

// entry encodes one sub-stream into a scratch file and folds it into the
// archive, which deletes the scratch file.
func (v VWAPFanout) entry(ctx context.Context, env *Env, zw *archive.Writer, exp int, s provider.RecordStream[model.Quote]) (int64, error) {
	req := env.Request
	name := req.VWAPEntryName(exp)
	tmp, err := env.Files.Scratch(req.Dir, "."+name+".*.tmp")
	if err != nil {
		s.Dispose()
		return 0, err
	}

	text := newQuoteText(func() (io.Writer, error) { return tmp, nil }, true, 1)
	rows, err := pull(ctx, env, s, text.write)
	if err == nil {
		err = text.ensureHeader()
	}
	if err == nil {
		err = text.flush()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		env.Files.Remove(tmp.Name())
		return rows, err
	}
	env.progress("%s: vwap %+03d: %d rows", req.Symbol, exp, rows)
	return rows, zw.AddEntry(name, tmp.Name())
}
