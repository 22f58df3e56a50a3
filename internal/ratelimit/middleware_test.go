package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// brokenStore fails every operation, standing in for an unreachable Redis.
type brokenStore struct{}

var errStoreDown = errors.New("store down")

func (brokenStore) Incr(context.Context, string) (int64, error) { return 0, errStoreDown }
func (brokenStore) Expire(context.Context, string, time.Duration) error { return errStoreDown }
func (brokenStore) TTL(context.Context, string) (time.Duration, error) { return 0, errStoreDown }
func (brokenStore) ZAdd(context.Context, string, float64, string) error { return errStoreDown }
func (brokenStore) ZRemRangeByScore(context.Context, string, float64, float64) error {
	return errStoreDown
}
func (brokenStore) ZCard(context.Context, string) (int64, error) { return 0, errStoreDown }
func (brokenStore) Exists(context.Context, string) (bool, error) { return false, errStoreDown }
func (brokenStore) Del(context.Context, ...string) error         { return errStoreDown }
func (brokenStore) SetWithTTL(context.Context, string, string, time.Duration) error {
	return errStoreDown
}

func okHandler(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

func TestIPLimiterMiddleware_RejectsOverLimit(t *testing.T) {
	store := NewMemoryStore()
	limiter := NewFixedWindowLimiter(store, "rl:test", 2, time.Minute)

	app := fiber.New()
	app.Get("/", IPLimiterMiddleware(limiter, true, zap.NewNop()), okHandler)

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	var body struct {
		RetryAfter int `json:"retryAfter"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.GreaterOrEqual(t, body.RetryAfter, 1)
	assert.LessOrEqual(t, body.RetryAfter, 60)
}

func TestIPLimiterMiddleware_FailOpen(t *testing.T) {
	limiter := NewFixedWindowLimiter(brokenStore{}, "rl:test", 1, time.Minute)

	app := fiber.New()
	app.Get("/", IPLimiterMiddleware(limiter, true, zap.NewNop()), okHandler)

	// Store down, degrade open: every request goes through.
	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestIPLimiterMiddleware_FailClosed(t *testing.T) {
	limiter := NewFixedWindowLimiter(brokenStore{}, "rl:test", 1, time.Minute)

	app := fiber.New()
	app.Get("/", IPLimiterMiddleware(limiter, false, zap.NewNop()), okHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestUserLimiterMiddleware_ThrottlesByLocalsUser(t *testing.T) {
	store := NewMemoryStore()
	limiter := NewSlidingWindowLimiter(store, "rl:user", 1, time.Minute)

	app := fiber.New()
	app.Get("/",
		func(c *fiber.Ctx) error {
			c.Locals("auth_user_id", "user-1")
			return c.Next()
		},
		UserLimiterMiddleware(limiter, "auth_user_id", true, zap.NewNop()),
		okHandler,
	)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestUserLimiterMiddleware_SkipsWithoutUser(t *testing.T) {
	store := NewMemoryStore()
	limiter := NewSlidingWindowLimiter(store, "rl:user", 1, time.Minute)

	app := fiber.New()
	app.Get("/", UserLimiterMiddleware(limiter, "auth_user_id", true, zap.NewNop()), okHandler)

	// No user id in locals: the throttle is a no-op.
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}
