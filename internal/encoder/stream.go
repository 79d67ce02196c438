package encoder

import (
	"context"
	"errors"
	"io"

	"quotes-export/internal/model"
	"quotes-export/internal/provider"
)

// pull drains s into fn in delivery order. s is held by the job's guard while
// it is read and disposed on return.
func pull[T any](ctx context.Context, env *Env, s provider.RecordStream[T], fn func(T) error) (int64, error) {
	if err := env.Guard.Hold(s); err != nil {
		return 0, err
	}
	defer env.Guard.Release(s)

	var n int64
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		rec, err := s.Next(env.Timeout)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := fn(rec); err != nil {
			return n, err
		}
		n++
	}
}

func openQuotes(ctx context.Context, env *Env) (provider.RecordStream[model.Quote], error) {
	req := env.Request
	depth := provider.DepthTop
	if req.Level2() {
		depth = provider.DepthFull
	}
	return env.Service.OpenQuoteStream(ctx, req.Symbol, depth, req.From, req.To, req.MaxBatch)
}

func openBars(ctx context.Context, env *Env, side model.Side) (provider.RecordStream[model.Bar], error) {
	req := env.Request
	return env.Service.OpenBarStream(ctx, req.Symbol, side, req.Period, req.From, req.To, req.MaxBatch)
}
