package primitive

import (
	"testing"
	"time"

	"github.com/coocood/freecache"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/service/cache/provider"
)

var (
	mockCtx = ctx.Background()
)

type testsuite struct {
	suite.Suite
	im *impl
}

func (ts *testsuite) SetupTest() {
	ts.im = NewPrimitive("test", 1).(*impl)
}

func (ts *testsuite) TearDownTest() {
	ts.im.cache.Clear()
}

func Test(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (ts *testsuite) TestSetExpires() {
	k := "key"
	v := []byte("value")

	ts.NoError(ts.im.Set(mockCtx, k, v, time.Second))
	r, e := ts.im.cache.Get([]byte(k))
	ts.NoError(e)
	ts.Equal(v, r)

	time.Sleep(time.Second)
	_, e = ts.im.cache.Get([]byte(k))
	ts.Equal(freecache.ErrNotFound, e)
}

func (ts *testsuite) TestGet() {
	cases := []struct {
		name   string
		key    string
		val    string
		expire int
		ttl    time.Duration
		err    error
	}{
		{name: "with ttl", key: "a", val: "value", expire: 60, ttl: time.Minute},
		{name: "persistent", key: "b", val: "value", expire: 0, ttl: 0},
		{name: "not found", key: "", err: provider.ErrNotFound},
	}

	for _, c := range cases {
		if len(c.key) > 0 {
			ts.NoError(ts.im.cache.Set([]byte(c.key), []byte(c.val), c.expire), c.name)
		}

		v, ttl, e := ts.im.Get(mockCtx, c.key)
		ts.Equal(c.err, e, c.name)
		ts.Equal(c.val, string(v), c.name)
		// freecache keeps whole seconds, allow one second of drift
		ts.InDelta(c.ttl.Seconds(), ttl.Seconds(), 1, c.name)
	}
}

func (ts *testsuite) TestDel() {
	ts.NoError(ts.im.Set(mockCtx, "key", []byte("value"), time.Minute))
	ts.NoError(ts.im.Del(mockCtx, "key"))
	_, _, err := ts.im.Get(mockCtx, "key")
	ts.Equal(provider.ErrNotFound, err)
}
