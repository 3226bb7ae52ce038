package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	KeyPrefix   string

	// StoreTimeout bounds the redis round trip; past it the request is let through.
	StoreTimeout time.Duration
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests:  100,
		Window:       time.Minute,
		KeyPrefix:    "ratelimit",
		StoreTimeout: 250 * time.Millisecond,
	}
}

// RateLimit creates a fixed-window rate limiting middleware using Redis. Requests are
// counted per session when one is attached, per client IP otherwise.
func RateLimit(redisClient redis.Cmdable, config RateLimitConfig, logger *zap.Logger) fiber.Handler {
	defaults := DefaultRateLimitConfig()
	if config.MaxRequests <= 0 {
		config.MaxRequests = defaults.MaxRequests
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = defaults.KeyPrefix
	}
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = defaults.StoreTimeout
	}

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), config.StoreTimeout)
		defer cancel()
		key := config.KeyPrefix + ":ip:" + c.IP()
		if session := CurrentSession(c); session != nil {
			key = config.KeyPrefix + ":session:" + session.ID
		}

		// the window starts with the first request; ExpireNX leaves a running window alone
		var count *redis.IntCmd
		var ttl *redis.DurationCmd
		_, err := redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			count = pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, config.Window)
			ttl = pipe.PTTL(ctx, key)
			return nil
		})
		if err != nil {
			logger.Warn("rate limit store unavailable, allowing request", zap.String("key", key), zap.Error(err))
			return c.Next()
		}

		resetIn := ttl.Val()
		if resetIn <= 0 {
			resetIn = config.Window
		}
		used := count.Val()
		remaining := int64(config.MaxRequests) - used
		if remaining < 0 {
			remaining = 0
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(resetIn).Unix(), 10))

		if used > int64(config.MaxRequests) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(resetIn.Seconds()))))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}

		return c.Next()
	}
}
