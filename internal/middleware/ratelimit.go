package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	pkgredis "github.com/vibelab/vibe-api/pkg/redis"
	"github.com/vibelab/vibe-api/pkg/response"
)

// RateLimitConfig holds per-IP rate limiting configuration
type RateLimitConfig struct {
	// Requests permitted per window per client IP
	Requests int
	// Window length
	Window time.Duration
	// Key prefix in Redis
	KeyPrefix string
}

// DefaultRateLimitConfig returns defaults suitable for auth endpoints.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Requests:  20,
		Window:    time.Minute,
		KeyPrefix: "ratelimit:",
	}
}

// RateLimit limits requests per client IP using a fixed window counter in
// Redis. On Redis errors the request is allowed through; losing rate
// limiting is preferable to failing every login while Redis is down.
func RateLimit(client *pkgredis.Client, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Requests <= 0 {
		cfg.Requests = DefaultRateLimitConfig().Requests
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultRateLimitConfig().Window
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultRateLimitConfig().KeyPrefix
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		// Window number in nanoseconds so sub-second windows work.
		window := time.Now().UnixNano() / int64(cfg.Window)
		key := fmt.Sprintf("%s%s:%d", cfg.KeyPrefix, c.ClientIP(), window)

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			if err := client.Expire(ctx, key, cfg.Window).Err(); err != nil {
				c.Next()
				return
			}
		}

		if count > int64(cfg.Requests) {
			response.AbortError(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded. Please try again later.")
			return
		}

		c.Next()
	}
}
