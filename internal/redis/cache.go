package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ViewCache stores the JSON projection of one read model type. Each instance
// owns a key namespace ("account:view:", "user:view:", ...) and views are
// addressed by their natural ID within it, so callers never assemble raw
// Redis keys.
type ViewCache[T any] struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewViewCache binds a cache to its key namespace. A zero ttl keeps views
// until the owning service invalidates them.
func NewViewCache[T any](client *goredis.Client, prefix string, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl}
}

// Get looks up the view for id. A miss, an unreachable Redis and a stale
// payload all read as (nil, false); the caller falls back to PostgreSQL.
func (c *ViewCache[T]) Get(ctx context.Context, id string) (*T, bool) {
	data, err := c.client.Get(ctx, c.prefix+id).Result()
	if err != nil {
		return nil, false
	}
	var view T
	if err := json.Unmarshal([]byte(data), &view); err != nil {
		return nil, false
	}
	return &view, true
}

// Set writes or refreshes the view for id. Write failures are logged and
// swallowed; the next cold read warms the entry again.
func (c *ViewCache[T]) Set(ctx context.Context, id string, view *T) {
	data, err := json.Marshal(view)
	if err != nil {
		log.Printf("ViewCache: failed to marshal %s%s: %v", c.prefix, id, err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+id, data, c.ttl).Err(); err != nil {
		log.Printf("ViewCache: failed to write %s%s: %v", c.prefix, id, err)
	}
}

// Delete drops the view for id, forcing the next read back to PostgreSQL.
func (c *ViewCache[T]) Delete(ctx context.Context, id string) {
	if err := c.client.Del(ctx, c.prefix+id).Err(); err != nil {
		log.Printf("ViewCache: failed to delete %s%s: %v", c.prefix, id, err)
	}
}
