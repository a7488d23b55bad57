package compound

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/service/cache/provider"
	"github.com/x-xyz/gomarket/service/cache/provider/primitive"
)

var (
	mockCtx = ctx.Background()
)

type testsuite struct {
	suite.Suite
	near provider.Provider
	far  provider.Provider
	im   provider.Provider
}

func (ts *testsuite) SetupTest() {
	ts.near = primitive.NewPrimitive("near", 1)
	ts.far = primitive.NewPrimitive("far", 1)
	ts.im = NewCompound(ts.near, ts.far)
}

func Test(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (ts *testsuite) TestSetWritesAllLayers() {
	k := "key"
	v := []byte("value")

	ts.NoError(ts.im.Set(mockCtx, k, v, time.Minute))
	for _, lyr := range []provider.Provider{ts.near, ts.far} {
		r, _, err := lyr.Get(mockCtx, k)
		ts.NoError(err)
		ts.Equal(v, r)
	}
}

func (ts *testsuite) TestGetFillsNearLayer() {
	k := "key"
	v := []byte("value")

	_, _, err := ts.im.Get(mockCtx, k)
	ts.Equal(provider.ErrNotFound, err)

	ts.NoError(ts.far.Set(mockCtx, k, v, time.Minute))
	_, _, err = ts.near.Get(mockCtx, k)
	ts.Equal(provider.ErrNotFound, err)

	r, _, err := ts.im.Get(mockCtx, k)
	ts.NoError(err)
	ts.Equal(v, r)

	r, _, err = ts.near.Get(mockCtx, k)
	ts.NoError(err)
	ts.Equal(v, r)
}

func (ts *testsuite) TestDel() {
	ts.NoError(ts.im.Set(mockCtx, "key", []byte("value"), time.Minute))
	ts.NoError(ts.im.Del(mockCtx, "key"))
	for _, lyr := range []provider.Provider{ts.near, ts.far} {
		_, _, err := lyr.Get(mockCtx, "key")
		ts.Equal(provider.ErrNotFound, err)
	}
}
