package kvstore

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a Redis instance, for deployments where the
// entitlement cache and quota counters are shared across server replicas.
type Redis struct {
	rdb   *redis.Client
	keyNS string
}

// NewRedis constructs a Redis-backed store. Keys are namespaced under
// keyPrefix (default "entitled:").
func NewRedis(rdb *redis.Client, keyPrefix string) *Redis {
	if keyPrefix == "" {
		keyPrefix = "entitled:"
	}
	return &Redis{rdb: rdb, keyNS: keyPrefix}
}

func (r *Redis) key(k string) string { return r.keyNS + k }

func (r *Redis) GetBool(ctx context.Context, key string) (bool, bool, error) {
	val, err := r.rdb.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return val == "1", true, nil
}

func (r *Redis) SetBool(ctx context.Context, key string, v bool) error {
	s := "0"
	if v {
		s = "1"
	}
	return r.rdb.Set(ctx, r.key(key), s, 0).Err()
}

func (r *Redis) GetInt64(ctx context.Context, key string) (int64, bool, error) {
	val, err := r.rdb.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (r *Redis) SetInt64(ctx context.Context, key string, v int64) error {
	return r.rdb.Set(ctx, r.key(key), strconv.FormatInt(v, 10), 0).Err()
}

// Increment relies on Redis INCR, which is atomic server-side.
func (r *Redis) Increment(ctx context.Context, key string) (int64, error) {
	return r.rdb.Incr(ctx, r.key(key)).Result()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.rdb.Del(ctx, full...).Err()
}

func (r *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	iter := r.rdb.Scan(ctx, 0, r.key(prefix)+"*", 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val()[len(r.keyNS):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ Store = (*Redis)(nil)
