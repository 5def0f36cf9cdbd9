package middleware

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when Redis cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

// LimitFunc resolves the current limit for a request. Returning 0 disables limiting.
type LimitFunc func(ctx context.Context) int

var errNoRedis = errors.New("rate limit store unavailable: redis client is nil")

// windowUsage is the state of one fixed window after counting a hit.
type windowUsage struct {
	count int64
	limit int
}

func (w windowUsage) allowed() bool { return w.count <= int64(w.limit) }

func (w windowUsage) remaining() int64 { return max(int64(w.limit)-w.count, 0) }

func rateLimitKey(resource, id string) string {
	return "rl:" + resource + ":" + id
}

// rateLimitBypassed reports whether APP_ENV disables throttling.
func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return true
	}
	return false
}

// hit counts one request against resource/id. The window starts on the first
// hit and is not extended by later ones.
func hit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (windowUsage, error) {
	if rdb == nil {
		return windowUsage{}, errNoRedis
	}
	key := rateLimitKey(resource, id)
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return windowUsage{}, err
	}
	if cnt == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return windowUsage{}, err
		}
	}
	return windowUsage{count: cnt, limit: limit}, nil
}

// CheckRateLimit counts a hit for resource/id and reports whether it fits in
// the window. Always allowed when APP_ENV is unset, "test", "development" or "stress".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rateLimitBypassed() {
		return true, nil
	}
	usage, err := hit(ctx, rdb, resource, id, limit, window)
	if err != nil {
		return false, err
	}
	return usage.allowed(), nil
}

// ResetRateLimit clears the counter for resource/id, e.g. after a successful login.
func ResetRateLimit(ctx context.Context, rdb *redis.Client, resource, id string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, rateLimitKey(resource, id)).Err()
}

// RateLimit allows limit requests per window, keyed by user when
// authenticated and by IP otherwise. Fails open.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return RateLimitDynamic(rdb, func(context.Context) int { return limit }, window, policy, name...)
}

// RateLimitDynamic resolves the limit per request so runtime settings apply
// without a restart. The bucket is name[0] when given, else the request path.
func RateLimitDynamic(rdb *redis.Client, limitFn LimitFunc, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(c *fiber.Ctx) error {
		if rateLimitBypassed() {
			return c.Next()
		}
		ctx := c.UserContext()
		limit := limitFn(ctx)
		if limit <= 0 {
			return c.Next()
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}
		id := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			id = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		usage, err := hit(ctx, rdb, resource, id, limit, window)
		if err != nil {
			if policy == FailOpen {
				return c.Next()
			}
			Logger.WarnContext(ctx, "rate limit store unavailable, rejecting",
				"path", c.Path(), "resource", resource, "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Rate limiting is temporarily unavailable",
				"code":  "SERVICE_UNAVAILABLE",
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(usage.remaining(), 10))
		if !usage.allowed() {
			c.Set(fiber.HeaderRetryAfter, retryAfter)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
				"code":  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
