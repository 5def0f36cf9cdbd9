package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"respawn/internal/middleware"
	"respawn/internal/observability"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by GetJSON when the key is absent or caching is disabled.
var ErrMiss = errors.New("cache miss")

func family(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// GetJSON decodes the cached value at key into dest.
func GetJSON(ctx context.Context, key string, dest any) error {
	if client == nil {
		return ErrMiss
	}
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// SetJSON stores value at key for ttl. A nil client is a no-op.
func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, ttl).Err()
}

// Aside serves dest from the cache when present; otherwise it calls load,
// which must populate dest, and stores the result for ttl. Cache failures
// fall through to load so Redis outages only cost latency.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, load func() error) error {
	if client == nil || ttl <= 0 {
		return load()
	}

	fam := family(key)
	err := GetJSON(ctx, key, dest)
	switch {
	case err == nil:
		observability.RecordCacheLookup(fam, "hit")
		return nil
	case errors.Is(err, ErrMiss):
		observability.RecordCacheLookup(fam, "miss")
	default:
		observability.RecordCacheLookup(fam, "error")
		middleware.Logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}

	if err := load(); err != nil {
		return err
	}
	if err := SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return nil
}
