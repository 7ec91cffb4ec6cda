// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

// Package redis provides a managed Redis client for the Trekora application.
//
// # Architecture
//
// Infrastructure layer. Redis backs the authentication rate limiter; the
// middleware that uses it lives in internal/platform/middleware.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Client connection tuning.
const (
	// dialTimeout is the maximum time to establish a new connection.
	dialTimeout = 5 * time.Second
	// readTimeout is the per-command read deadline.
	readTimeout = 3 * time.Second
	// writeTimeout is the per-command write deadline.
	writeTimeout = 3 * time.Second
	// poolSize is the maximum number of socket connections.
	poolSize = 20
	// minIdleConns keeps a warm set of connections ready.
	minIdleConns = 5
	// pingTimeout is the maximum duration for a health check ping.
	pingTimeout = 2 * time.Second
)

// NewClient creates and validates a new Redis client.
//
// # Parameters
//   - ctx: Context for the initial PING.
//   - url: A redis:// or rediss:// connection URL.
//   - logger: Structured logger for client-level events.
func NewClient(ctx context.Context, url string, logger *slog.Logger) (*goredis.Client, error) {
	options, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout
	options.PoolSize = poolSize
	options.MinIdleConns = minIdleConns

	client := goredis.NewClient(options)

	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
	)

	return client, nil
}

// Ping verifies that the Redis connection is healthy.
func Ping(ctx context.Context, client *goredis.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}
