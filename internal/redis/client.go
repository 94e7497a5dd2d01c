package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Client is a service's shared Redis handle. The same connection pool backs
// the view caches, the idempotency guard and the event streams.
type Client struct {
	*goredis.Client
}

// Connect dials Redis and verifies the connection before any wiring happens,
// so a bad address fails the boot rather than the first request.
func Connect(addr, password string) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:            addr,
		Password:        password,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		PoolSize:        16,
		MinIdleConns:    2,
		ConnMaxIdleTime: 5 * time.Minute,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Client{Client: rdb}, nil
}
