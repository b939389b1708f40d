// engine/internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"relist-engine/internal/domain"
)

const keyPrefix = "relist:product:"

// ProductCache keeps scraped products in Redis, keyed by canonical
// URL. Fail-open: any Redis or decode error is a miss, never an
// error for the pipeline. A nil *ProductCache is a valid disabled
// cache.
type ProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis at addr. An empty addr disables caching and
// returns nil.
func New(addr string, ttl time.Duration) *ProductCache {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	log.Printf("[cache] redis at %s, ttl %s", addr, ttl)
	return &ProductCache{rdb: rdb, ttl: ttl}
}

func (c *ProductCache) GetProduct(ctx context.Context, key string) (*domain.ProductRecord, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[cache] get %s: %v", key, err)
		}
		return nil, false
	}
	var p domain.ProductRecord
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Printf("[cache] decode %s: %v", key, err)
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) SetProduct(ctx context.Context, key string, p *domain.ProductRecord) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		log.Printf("[cache] encode %s: %v", key, err)
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		log.Printf("[cache] set %s: %v", key, err)
	}
}

// Invalidate drops one cached product.
func (c *ProductCache) Invalidate(ctx context.Context, key string) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		log.Printf("[cache] del %s: %v", key, err)
	}
}

// Close releases the Redis connection.
func (c *ProductCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
