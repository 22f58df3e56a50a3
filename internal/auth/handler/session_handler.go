package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tradeyard/auth-service/internal/auth/dto"
	"github.com/tradeyard/auth-service/internal/auth/service"
	autherror "github.com/tradeyard/auth-service/internal/errors"
)

type SessionHandler struct {
	userService *service.UserService
}

func NewSessionHandler(userService *service.UserService) *SessionHandler {
	return &SessionHandler{userService: userService}
}

func (h *SessionHandler) List(c *fiber.Ctx) error {
	user := AuthUser(c)
	if user == nil {
		return errorResponse(c, autherror.ErrTokenInvalid)
	}

	sessions, err := h.userService.ListSessions(c.UserContext(), user.ID)
	if err != nil {
		return errorResponse(c, err)
	}

	out := make([]dto.SessionOutput, 0, len(sessions))
	for i := range sessions {
		out = append(out, dto.NewSessionOutput(&sessions[i]))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"sessions": out,
	})
}

func (h *SessionHandler) Revoke(c *fiber.Ctx) error {
	user := AuthUser(c)
	if user == nil {
		return errorResponse(c, autherror.ErrTokenInvalid)
	}

	sessionID := c.Params("id")
	if err := h.userService.RevokeSession(c.UserContext(), sessionID, user.ID); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "session revoked",
	})
}
