package middleware

import (
	"bufio"
	"bytes"
	"hash/fnv"
	"net"
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/service/cache"
)

// HeaderXCache tells whether a response was served from the cache
const HeaderXCache = "X-Cache"

type cachedResponse struct {
	Body        []byte `json:"body"`
	ContentType string `json:"contentType"`
}

// recorder copies the body of a response while it is written
type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *recorder) Flush() {
	r.ResponseWriter.(http.Flusher).Flush()
}

func (r *recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return r.ResponseWriter.(http.Hijacker).Hijack()
}

// requestKey hashes the path and the query with its values sorted, so parameter order does not matter
func requestKey(req *http.Request) string {
	params := req.URL.Query()
	for _, vals := range params {
		sort.Strings(vals)
	}

	h := fnv.New64a()
	h.Write([]byte(req.URL.Path))
	h.Write([]byte{'?'})
	h.Write([]byte(params.Encode()))
	return strconv.FormatUint(h.Sum64(), 36)
}

// CacheHttp serves successful GET responses out of svc until its ttl expires
func CacheHttp(svc cache.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Get("ctx").(ctx.Ctx)
			key := requestKey(c.Request())

			cached := cachedResponse{}
			if err := svc.Get(ctx, key, &cached); err == nil {
				c.Response().Header().Set(HeaderXCache, "HIT")
				return c.Blob(http.StatusOK, cached.ContentType, cached.Body)
			} else if err != cache.ErrNotFound {
				ctx.WithFields(log.Fields{"err": err, "key": key}).Error("svc.Get failed")
			}

			c.Response().Header().Set(HeaderXCache, "MISS")
			rec := &recorder{ResponseWriter: c.Response().Writer}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			if rec.status > 0 && rec.status < 400 {
				cached = cachedResponse{
					Body:        rec.body.Bytes(),
					ContentType: rec.Header().Get(echo.HeaderContentType),
				}
				if err := svc.Set(ctx, key, cached); err != nil {
					ctx.WithFields(log.Fields{"err": err, "key": key}).Error("svc.Set failed")
				}
			}
			return nil
		}
	}
}
