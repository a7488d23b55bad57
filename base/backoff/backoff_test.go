package backoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExponential(t *testing.T) {
	req := require.New(t)
	b := NewExponential(time.Millisecond, 4*time.Millisecond)
	req.Equal(time.Millisecond, b.Next())

	for _, want := range []time.Duration{2 * time.Millisecond, 4 * time.Millisecond, 4 * time.Millisecond} {
		req.NoError(b.Backoff(context.Background()))
		req.Equal(want, b.Next())
	}
	req.Equal(3, b.Attempts())

	b.Reset()
	req.Equal(time.Millisecond, b.Next())
	req.Zero(b.Attempts())
}

func TestBackoffCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewExponential(time.Second, 0)
	require.ErrorIs(t, b.Backoff(ctx), context.Canceled)
	require.Zero(t, b.Attempts())
	require.Equal(t, time.Second, b.Next())
}
