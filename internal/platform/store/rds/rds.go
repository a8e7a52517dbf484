// Package rds opens a redis client with the same boot guardrails as the pg opener
package rds

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures redis connectivity
type Config struct {
	Addr     string
	Password string
	DB       int
	// PoolSize 0 means go-redis default (10 per CPU)
	PoolSize int
}

// Open creates a client and waits for PING to succeed, retrying with backoff until ctx ends
func Open(ctx context.Context, cfg Config) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	const attempts = 8
	backoff := 100 * time.Millisecond
	var lastErr error
	for range attempts {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		lastErr = c.Ping(pctx).Err()
		cancel()
		if lastErr == nil {
			return c, nil
		}
		select {
		case <-ctx.Done():
			_ = c.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 2*time.Second)
	}
	_ = c.Close()
	return nil, fmt.Errorf("redis ping failed after %d attempts: %w", attempts, lastErr)
}
