package redis

import (
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/base/metrics"
	"github.com/x-xyz/gomarket/domain/keys"
)

const (
	// TTL replies for a missing key and for a key without expiry
	retTTLNoKey    = -2
	retTTLNoExpire = -1

	delBatchSize = 100
)

type redImpl struct {
	name  string
	met   metrics.Service
	pools *Pools
}

// Pools represents different pool types
type Pools struct {
	Src *redis.Pool
}

// New wraps the pools of one redis cluster, name tags its metrics
func New(name string, metrics metrics.Service, pools *Pools) Service {
	return &redImpl{
		name:  name,
		met:   metrics,
		pools: pools,
	}
}

// do runs one command on a pooled connection, timing it under fn and the key prefix
func (r *redImpl) do(context ctx.Ctx, fn, key, command string, args ...interface{}) (interface{}, error) {
	tags := []string{"func", fn, "cluster", r.name, "prefix", keys.GetPrefix(key)}
	defer r.met.BumpTime("time", tags...).End()

	if r.pools == nil || r.pools.Src == nil {
		return nil, ErrNoPool
	}
	conn := r.pools.Src.Get()
	if err := conn.Err(); err != nil {
		r.met.BumpSum("getConn.err", 1, "cluster", r.name)
		return nil, err
	}
	// released right away, holding it makes the pool grow under load
	defer conn.Close()

	reply, err := redis.DoContext(conn, context, command, args...)
	if err != nil && err != redis.ErrNil {
		r.met.BumpSum("err", 1, tags...)
		context.WithFields(log.Fields{"err": err, "key": key, "cluster": r.name}).Error(command + " redis failed")
	}
	return reply, err
}

func (r *redImpl) Get(context ctx.Ctx, key string) ([]byte, error) {
	val, err := redis.Bytes(r.do(context, "get", key, "GET", key))
	if err == redis.ErrNil {
		return nil, ErrNotFound
	}
	return val, err
}

func (r *redImpl) Set(context ctx.Ctx, key string, val []byte, expire time.Duration) error {
	args := []interface{}{key, val}
	if expire > 0 {
		args = append(args, "PX", int64(expire/time.Millisecond))
	}
	_, err := r.do(context, "set", key, "SET", args...)
	return err
}

// Del removes keys in batches of delBatchSize and returns how many existed
func (r *redImpl) Del(context ctx.Ctx, ks ...string) (int, error) {
	if len(ks) == 0 {
		return 0, errors.New("length of keys is 0")
	}

	affected := 0
	for start := 0; start < len(ks); start += delBatchSize {
		end := start + delBatchSize
		if end > len(ks) {
			end = len(ks)
		}
		res, err := redis.Int(r.do(context, "del", ks[start], "DEL", redis.Args{}.AddFlat(ks[start:end])...))
		if err != nil {
			return 0, err
		}
		affected += res
	}
	return affected, nil
}

func (r *redImpl) TTL(context ctx.Ctx, key string) (int, error) {
	res, err := redis.Int(r.do(context, "ttl", key, "TTL", key))
	switch {
	case err != nil:
		return 0, err
	case res == retTTLNoKey:
		return res, ErrNotFound
	case res == retTTLNoExpire:
		return res, ErrNoTTL
	}
	return res, nil
}

func (r *redImpl) Publish(context ctx.Ctx, channel string, msg []byte) (int, error) {
	r.met.BumpHistogram("bytes", float64(len(msg)), "func", "publish", "cluster", r.name)
	return redis.Int(r.do(context, "publish", channel, "PUBLISH", channel, msg))
}

func (r *redImpl) Ping(context ctx.Ctx) error {
	_, err := r.do(context, "ping", "", "PING")
	return err
}

func (r *redImpl) Name() string {
	return r.name
}
