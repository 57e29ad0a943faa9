package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const activeKey = "catalog:active"

// Cache keeps the active-service list in Redis so the front desk's hottest
// read skips Postgres. Entries expire on their own; writes invalidate early.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a catalog cache. A zero TTL falls back to five minutes.
func NewCache(redisClient *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{redis: redisClient, ttl: ttl}
}

// GetActive returns the cached active list, or ok=false on a miss.
func (c *Cache) GetActive(ctx context.Context) ([]*Service, bool, error) {
	data, err := c.redis.Get(ctx, activeKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("catalog: get cached list: %w", err)
	}

	var services []*Service
	if err := json.Unmarshal(data, &services); err != nil {
		return nil, false, fmt.Errorf("catalog: unmarshal cached list: %w", err)
	}
	return services, true, nil
}

// SetActive stores the active list under the cache TTL.
func (c *Cache) SetActive(ctx context.Context, services []*Service) error {
	data, err := json.Marshal(services)
	if err != nil {
		return fmt.Errorf("catalog: marshal list: %w", err)
	}
	if err := c.redis.Set(ctx, activeKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("catalog: set cached list: %w", err)
	}
	return nil
}

// Invalidate drops the cached list after a catalog write.
func (c *Cache) Invalidate(ctx context.Context) error {
	if err := c.redis.Del(ctx, activeKey).Err(); err != nil {
		return fmt.Errorf("catalog: invalidate cached list: %w", err)
	}
	return nil
}
