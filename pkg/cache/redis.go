package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResultsCache is an optional Redis-backed cache for rendered analysis
// results, shared across replicas when REDIS_URL is configured. A nil
// *ResultsCache is valid and caches nothing.
type ResultsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultsCache(addr string, ttl time.Duration) *ResultsCache {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &ResultsCache{client: client, ttl: ttl}
}

func (r *ResultsCache) Get(ctx context.Context, key string) (string, bool) {
	if r == nil {
		return "", false
	}
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (r *ResultsCache) Set(ctx context.Context, key, value string) {
	if r == nil {
		return
	}
	// Best effort; a miss next time just re-reads the database.
	r.client.Set(ctx, key, value, r.ttl)
}

func (r *ResultsCache) Invalidate(ctx context.Context, key string) {
	if r == nil {
		return
	}
	r.client.Del(ctx, key)
}
