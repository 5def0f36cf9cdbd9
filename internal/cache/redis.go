// Package cache wraps the shared Redis client used for read-through caching,
// token revocation and rate limiting.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"respawn/internal/middleware"
	"respawn/internal/observability"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

var client *redis.Client

// instrumentHook traces every command and counts failures. redis.Nil is a
// miss, not a failure.
type instrumentHook struct{}

func (instrumentHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (instrumentHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := observability.StartRedisSpan(ctx, cmd.Name())
		err := next(ctx, cmd)
		if isFailure(err) {
			middleware.RedisErrors.WithLabelValues(cmd.Name()).Inc()
			observability.EndSpan(span, err)
			return err
		}
		span.End()
		return err
	}
}

func (instrumentHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := observability.StartRedisSpan(ctx, "pipeline")
		err := next(ctx, cmds)
		if isFailure(err) {
			middleware.RedisErrors.WithLabelValues("pipeline").Inc()
			observability.EndSpan(span, err)
			return err
		}
		span.End()
		return err
	}
}

func isFailure(err error) bool {
	return err != nil && !errors.Is(err, redis.Nil)
}

// ParseOptions accepts a redis:// or rediss:// URL or a bare host:port.
func ParseOptions(addr string) (*redis.Options, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis address is empty")
	}
	if !strings.Contains(addr, "://") {
		return &redis.Options{Addr: addr}, nil
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return opts, nil
}

// InitRedis connects the package client. On any failure the client stays nil,
// which disables caching, and the error is returned for the caller to log.
func InitRedis(ctx context.Context, addr string) error {
	client = nil

	opts, err := ParseOptions(addr)
	if err != nil {
		return err
	}

	c := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	SetClient(c)
	middleware.Logger.Info("redis connected", "addr", opts.Addr, "db", opts.DB)
	return nil
}

// GetClient returns the current client, or nil when caching is disabled.
func GetClient() *redis.Client {
	return client
}

// SetClient replaces the package client. Tests point it at miniredis; nil disables caching.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(instrumentHook{})
	}
	client = c
}
