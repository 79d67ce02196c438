package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingStream struct{ disposed int }

func (c *countingStream) Dispose() error {
	c.disposed++
	return nil
}

func TestStreamGuard_HoldRelease(t *testing.T) {
	var g StreamGuard
	s := &countingStream{}
	assert.NoError(t, g.Hold(s))
	g.Release(s)
	assert.Equal(t, 1, s.disposed)

	g.Dispose()
	assert.Equal(t, 1, s.disposed, "released stream is not disposed again")
}

func TestStreamGuard_DisposeActive(t *testing.T) {
	var g StreamGuard
	s := &countingStream{}
	assert.NoError(t, g.Hold(s))

	g.Dispose()
	assert.Equal(t, 1, s.disposed)
	assert.True(t, g.Disposed())

	late := &countingStream{}
	assert.ErrorIs(t, g.Hold(late), ErrDisposed)
	assert.Equal(t, 1, late.disposed)
}
