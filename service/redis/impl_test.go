package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/metrics"
)

func TestWithoutPool(t *testing.T) {
	req := require.New(t)
	r := New("main", metrics.New("redis"), nil)
	c := ctx.Background()

	_, err := r.Get(c, "royalty:0xdcf0:1")
	req.ErrorIs(err, ErrNoPool)
	req.ErrorIs(r.Set(c, "nonce:0xdf86", []byte("1"), time.Minute), ErrNoPool)
	req.ErrorIs(r.Ping(c), ErrNoPool)
	_, err = r.Publish(c, "orderEvents:1", []byte("{}"))
	req.ErrorIs(err, ErrNoPool)
	req.Equal("main", r.Name())
}

func TestDelWithoutKeys(t *testing.T) {
	_, err := New("main", metrics.New("redis"), &Pools{}).Del(ctx.Background())
	require.Error(t, err)
}
