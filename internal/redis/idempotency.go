package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// IdempotencyGuard hands out at-most-once reservations for operation keys, so
// a ledger operation replayed under at-least-once delivery (or retried after
// a timed-out HTTP call) is applied a single time.
type IdempotencyGuard struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewIdempotencyGuard creates a guard whose keys expire after ttl. The TTL
// only needs to outlast the longest realistic redelivery window.
func NewIdempotencyGuard(client *goredis.Client, prefix string, ttl time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{client: client, prefix: prefix, ttl: ttl}
}

// Reserve atomically claims key for the caller. False means another delivery
// of the same operation already holds it. A Redis failure comes back as an
// error so the caller refuses the operation instead of guessing; guessing in
// either direction risks a double apply or a silently dropped one.
func (g *IdempotencyGuard) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+key, "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve %s: %w", key, err)
	}
	return ok, nil
}

// Release frees a reservation whose operation did not apply, so a later
// retry of the same key is not mistaken for a replay.
func (g *IdempotencyGuard) Release(ctx context.Context, key string) {
	if err := g.client.Del(ctx, g.prefix+key).Err(); err != nil {
		log.Printf("IdempotencyGuard: failed to release %s: %v", key, err)
	}
}
