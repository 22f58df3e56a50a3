package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tradeyard/auth-service/internal/auth/domain"
	"github.com/tradeyard/auth-service/internal/auth/service"
	autherror "github.com/tradeyard/auth-service/internal/errors"
)

const (
	authUserKey = "auth_user"
	// AuthUserIDKey is where the middleware stores the authenticated user id;
	// the per-user throttle reads it from locals.
	AuthUserIDKey = "auth_user_id"
)

// RequireAuth verifies the bearer token, rejects revoked tokens and loads the
// user into locals for downstream handlers.
func RequireAuth(userService *service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return errorResponse(c, autherror.ErrTokenInvalid)
		}

		user, err := userService.Authenticate(c.UserContext(), token)
		if err != nil {
			return errorResponse(c, err)
		}

		c.Locals(authUserKey, user)
		c.Locals(AuthUserIDKey, user.ID)

		return c.Next()
	}
}

// AuthUser returns the user RequireAuth stored, or nil on unauthenticated
// routes.
func AuthUser(c *fiber.Ctx) *domain.User {
	if user, ok := c.Locals(authUserKey).(*domain.User); ok {
		return user
	}
	return nil
}
