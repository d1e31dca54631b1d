// Package redis hosts the session cache: the per-session last-resolved
// identity keys consumed by the signal collector and written back by the
// hydrator.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const clientName = "identity-service"

// Config carries the session cache connection settings. DialTimeout bounds
// connection establishment and the startup ping; callers normally populate
// it from REDIS_DIAL_TIMEOUT.
type Config struct {
	Addr        string
	DB          int
	DialTimeout time.Duration
}

// Connect opens the client backing the session cache and verifies it answers
// a ping. The cache is an optimization at request time (reads degrade to an
// empty signal), but a Redis that is unreachable at startup is a deployment
// fault and fails fast.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		DB:          cfg.DB,
		ClientName:  clientName,
		DialTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session cache ping: %w", err)
	}

	return client, nil
}
