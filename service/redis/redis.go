package redis

import (
	"errors"
	"time"

	"github.com/x-xyz/gomarket/base/ctx"
)

// Forever disables expiry on a key
const Forever time.Duration = -1

var (
	ErrNotFound = errors.New("redis: key not found")
	ErrNoTTL    = errors.New("redis: key has no ttl")
	ErrNoPool   = errors.New("redis: no pool")
)

// Service is the redis client used by caches, health checks and event publishing
type Service interface {
	Get(context ctx.Ctx, key string) ([]byte, error)
	Set(context ctx.Ctx, key string, val []byte, expire time.Duration) error
	Del(context ctx.Ctx, ks ...string) (int, error)
	// TTL returns seconds left, ErrNotFound for a missing key and ErrNoTTL for a persistent one
	TTL(context ctx.Ctx, key string) (int, error)
	// Publish returns the number of subscribers that received msg
	Publish(context ctx.Ctx, channel string, msg []byte) (int, error)
	Ping(context ctx.Ctx) error
	Name() string
}
