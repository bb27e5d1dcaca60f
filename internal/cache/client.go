// internal/cache/client.go
package cache

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Client wraps one Redis connection serving the win leaderboard and the
// action journal. Both are best effort: a dead Redis is logged and
// shrugged off, never surfaced to a table.
type Client struct {
	rdb *redis.Client
	log *logrus.Logger
}

// Connect dials Redis from the environment and pings it:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_PASSWORD (optional)
//   - REDIS_DB (optional, default 0)
func Connect(ctx context.Context, log *logrus.Logger) (*Client, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	dbIdx := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			dbIdx = n
		}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       dbIdx,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Client{rdb: rdb, log: log}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
