package handler

import (
	"github.com/gofiber/fiber/v2"
)

// Middlewares carries the limiter and auth chain routes are wired with. Kept
// as plain fiber.Handler values so route tests can drop in no-ops.
type Middlewares struct {
	GlobalLimit   fiber.Handler
	LoginLimit    fiber.Handler
	RegisterLimit fiber.Handler
	UserThrottle  fiber.Handler
	RequireAuth   fiber.Handler
}

func RegisterRoutes(app *fiber.App, auth *AuthHandler, sessions *SessionHandler, health *HealthHandler, mw Middlewares) {
	// Liveness stays outside the limiter chain.
	app.Get("/health", health.Check)

	app.Use(mw.GlobalLimit)

	users := app.Group("/api/users")
	users.Post("/register", mw.RegisterLimit, auth.Register)
	users.Post("/login", mw.LoginLimit, auth.Login)
	users.Post("/refresh-token", auth.Refresh)
	// Logout validates its own token because it must tolerate expiry.
	users.Post("/logout", auth.Logout)
	users.Get("/profile", mw.RequireAuth, mw.UserThrottle, auth.Profile)

	s := app.Group("/api/sessions", mw.RequireAuth, mw.UserThrottle)
	s.Get("/", sessions.List)
	s.Delete("/:id", sessions.Revoke)
}
