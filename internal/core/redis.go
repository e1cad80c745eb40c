// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/solution-ledger/internal/config"
)

// Redis backs the access-token denylist and the rate limiter. Both fail
// open, so a Redis outage degrades the API instead of stopping it.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds the client and waits for the first PING. When Redis does
// not answer, the client is still returned along with an ErrUpstream error
// so the caller can choose to run degraded; go-redis reconnects on its own.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = 30 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute
	opts.ClientName = "solution-ledger"

	r := &Redis{Client: redis.NewClient(opts)}
	if err := waitReady(ctx, r.Ping); err != nil {
		return r, fmt.Errorf("%w: redis: %w", ErrUpstream, err)
	}

	return r, nil
}

func (r *Redis) Close() error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}
