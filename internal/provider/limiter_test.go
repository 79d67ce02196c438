package provider_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotes-export/internal/provider"
	"quotes-export/internal/provider/providertest"
)

func TestRateLimited_PacesOpens(t *testing.T) {
	fake := &providertest.Service{}
	svc := provider.NewRateLimited(fake, 50, 1)
	from := time.Date(2018, 6, 8, 0, 0, 0, 0, time.UTC)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := svc.OpenQuoteStream(context.Background(), "EURUSD", provider.DepthTop, from, from.Add(time.Hour), 0)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, 3, fake.Opens())
}

func TestRateLimited_ContextCancelled(t *testing.T) {
	fake := &providertest.Service{}
	svc := provider.NewRateLimited(fake, 0.001, 1)
	from := time.Date(2018, 6, 8, 0, 0, 0, 0, time.UTC)

	_, err := svc.OpenVWAPStream(context.Background(), "EURUSD", 0, from, from.Add(time.Hour), 0)
	require.Error(t, err, "exponent 0 is not configured in the fake")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.OpenBarStream(ctx, "EURUSD", 0, "H1", from, from.Add(time.Hour), 0)
	assert.Error(t, err)
	assert.Equal(t, 0, fake.Opens())
}

func TestRateLimited_Unlimited(t *testing.T) {
	svc := provider.NewRateLimited(&providertest.Service{}, 0, 0)
	from := time.Date(2018, 6, 8, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		_, err := svc.OpenQuoteStream(context.Background(), "EURUSD", provider.DepthTop, from, from.Add(time.Hour), 0)
		require.NoError(t, err)
	}
}
