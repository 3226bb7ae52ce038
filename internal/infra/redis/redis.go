package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PowerLink/config"
)

const (
	pingTimeout = 10 * time.Second
	// a down redis must not stall requests for seconds
	dialTimeout = 500 * time.Millisecond
	maxRetries  = 1
	clientName  = "powerlink"
)

// NewClient builds the redis client backing sessions, notifications and rate limits,
// and verifies connectivity via PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(Options(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", rdb.Options().Addr, err)
	}

	return rdb, nil
}

// Options maps app config onto client options, defaulting to localhost:6379.
func Options(cfg config.RedisConfig) *redis.Options {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 6379
	}

	return &redis.Options{
		Addr:        fmt.Sprintf("%s:%d", host, port),
		ClientName:  clientName,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
		MaxRetries:  maxRetries,
	}
}

// Ping adapts the client to a readiness check.
func Ping(rdb redis.Cmdable) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
