package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"quotes-export/internal/model"
)

// RateLimited paces stream opens on a shared session. Every job and every
// VWAP sub-request draws from the same limiter.
type RateLimited struct {
	QuoteService
	limiter *rate.Limiter
}

// NewRateLimited wraps svc. rps <= 0 disables pacing.
func NewRateLimited(svc QuoteService, rps float64, burst int) *RateLimited {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{QuoteService: svc, limiter: rate.NewLimiter(limit, burst)}
}

func (r *RateLimited) OpenQuoteStream(ctx context.Context, symbol string, depth Depth, from, to time.Time, maxBatch int) (RecordStream[model.Quote], error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.QuoteService.OpenQuoteStream(ctx, symbol, depth, from, to, maxBatch)
}

func (r *RateLimited) OpenBarStream(ctx context.Context, symbol string, side model.Side, period model.BarPeriod, from, to time.Time, maxBatch int) (RecordStream[model.Bar], error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.QuoteService.OpenBarStream(ctx, symbol, side, period, from, to, maxBatch)
}

func (r *RateLimited) OpenVWAPStream(ctx context.Context, symbol string, exponent int, from, to time.Time, maxBatch int) (RecordStream[model.Quote], error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.QuoteService.OpenVWAPStream(ctx, symbol, exponent, from, to, maxBatch)
}
