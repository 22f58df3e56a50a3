package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	dbPing    func(ctx context.Context) error
	redisPing func(ctx context.Context) error
}

func NewHealthHandler(dbPing, redisPing func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{dbPing: dbPing, redisPing: redisPing}
}

// Check reports liveness plus backend reachability. The endpoint itself stays
// 200 as long as the process is up; degraded backends are visible in the body.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if h.dbPing != nil {
		if err := h.dbPing(ctx); err != nil {
			dbStatus = "unreachable"
		}
	}

	redisStatus := "ok"
	if h.redisPing != nil {
		if err := h.redisPing(ctx); err != nil {
			redisStatus = "unreachable"
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  dbStatus,
		"redis":     redisStatus,
	})
}
