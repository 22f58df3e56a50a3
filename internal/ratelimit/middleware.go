package ratelimit

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// IPLimiterMiddleware applies a fixed-window limiter keyed by client IP.
// When the counter store is unreachable the configured degrade policy
// decides: fail-open lets the request through unthrottled, fail-closed
// rejects it as rate limited.
func IPLimiterMiddleware(limiter *FixedWindowLimiter, failOpen bool, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision, err := limiter.Allow(c.UserContext(), c.IP())
		if err != nil {
			log.Warn("rate limiter unavailable",
				zap.String("purpose", limiter.purpose),
				zap.Bool("fail_open", failOpen),
				zap.Error(err),
			)
			if failOpen {
				return c.Next()
			}
			return rejectRateLimited(c, Decision{RetryAfter: limiter.window})
		}

		if !decision.Allowed {
			return rejectRateLimited(c, decision)
		}

		return c.Next()
	}
}

// UserLimiterMiddleware applies the per-user sliding-window throttle on
// authenticated routes. It must run after the auth middleware has stored the
// user id in locals under userKey.
func UserLimiterMiddleware(limiter *SlidingWindowLimiter, userKey string, failOpen bool, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(userKey).(string)
		if !ok || userID == "" {
			return c.Next()
		}

		decision, err := limiter.Allow(c.UserContext(), userID)
		if err != nil {
			log.Warn("user rate limiter unavailable",
				zap.String("user_id", userID),
				zap.Bool("fail_open", failOpen),
				zap.Error(err),
			)
			if failOpen {
				return c.Next()
			}
			return rejectRateLimited(c, Decision{RetryAfter: limiter.window})
		}

		if !decision.Allowed {
			return rejectRateLimited(c, decision)
		}

		return c.Next()
	}
}

func rejectRateLimited(c *fiber.Ctx, decision Decision) error {
	retryAfter := int(decision.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":      "too many requests, please try again later",
		"retryAfter": retryAfter,
	})
}
