package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache 多次运行/多实例共享的实现
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, rawURL string) (*SkipEntry, bool, error) {
	raw, err := r.rdb.Get(ctx, keyPrefix+NormalizeURL(rawURL)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var e SkipEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, err
	}
	return &e, true, nil
}

func (r *RedisCache) Put(ctx context.Context, rawURL string, entry *SkipEntry) error {
	e := *entry
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	raw, err := json.Marshal(&e)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, keyPrefix+NormalizeURL(rawURL), raw, r.ttl).Err()
}
