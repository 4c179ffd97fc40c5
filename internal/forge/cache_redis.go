//go:build enterprise
// +build enterprise

package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisResultCache is a cross-instance alternative to the in-process LRU,
// satisfying the same resultCache contract Forge consumes: a shared cache
// so multiple Forge instances behind a load balancer see each other's
// cached generations.
type RedisResultCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisResultCache builds a Redis-backed cache. addr is a "host:port"
// Redis address; ttl <= 0 defaults to 24h.
func NewRedisResultCache(addr, password string, db int, ttl time.Duration) (*RedisResultCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("forge: redis result cache ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisResultCache{client: client, ttl: ttl}, nil
}

func resultKey(fp Fingerprint) string {
	return fmt.Sprintf("forge:result:%s", fp)
}

// Get implements resultCache using context.Background(): the interface
// Forge consumes predates any per-call context, matching
// resilience.LRU's synchronous, context-free shape.
func (c *RedisResultCache) Get(fp Fingerprint) (Result, bool) {
	ctx := context.Background()
	val, err := c.client.Get(ctx, resultKey(fp)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("fingerprint", string(fp)).Msg("forge: redis cache get error")
		}
		return Result{}, false
	}
	var r Result
	if err := json.Unmarshal([]byte(val), &r); err != nil {
		log.Debug().Err(err).Str("fingerprint", string(fp)).Msg("forge: redis cache unmarshal error")
		return Result{}, false
	}
	return r, true
}

func (c *RedisResultCache) Set(fp Fingerprint, r Result) {
	ctx := context.Background()
	data, err := json.Marshal(r)
	if err != nil {
		log.Debug().Err(err).Msg("forge: redis cache marshal error")
		return
	}
	if err := c.client.Set(ctx, resultKey(fp), data, c.ttl).Err(); err != nil {
		log.Debug().Err(err).Str("fingerprint", string(fp)).Msg("forge: redis cache set error")
	}
}

func (c *RedisResultCache) Size() int {
	keys, err := c.client.Keys(context.Background(), "forge:result:*").Result()
	if err != nil {
		return 0
	}
	return len(keys)
}

func (c *RedisResultCache) Clear() {
	ctx := context.Background()
	iter := c.client.Scan(ctx, 0, "forge:result:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Debug().Err(err).Str("key", iter.Val()).Msg("forge: redis cache delete error")
		}
	}
}

// Close closes the Redis client connection.
func (c *RedisResultCache) Close() error {
	return c.client.Close()
}
