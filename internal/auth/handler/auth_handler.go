package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tradeyard/auth-service/config"
	"github.com/tradeyard/auth-service/internal/auth/dto"
	"github.com/tradeyard/auth-service/internal/auth/service"
	autherror "github.com/tradeyard/auth-service/internal/errors"
	"github.com/tradeyard/auth-service/internal/geo"
	"github.com/tradeyard/auth-service/pkg/useragent"
)

const refreshCookieName = "refreshToken"

type AuthHandler struct {
	userService *service.UserService
	geoResolver *geo.Resolver
	validate    *validator.Validate
	cfg         *config.Config
}

func NewAuthHandler(userService *service.UserService, geoResolver *geo.Resolver, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		geoResolver: geoResolver,
		validate:    validator.New(),
		cfg:         cfg,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, autherror.ErrValidation)
	}
	if err := h.validate.Struct(input); err != nil {
		return errorResponse(c, autherror.ErrValidation)
	}

	user, pair, err := h.userService.Register(c.UserContext(), input, h.sessionMeta(c))
	if err != nil {
		return errorResponse(c, err)
	}

	h.setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiresAt)

	return c.Status(fiber.StatusCreated).JSON(dto.AuthResponse{
		AccessToken: pair.AccessToken,
		User:        dto.NewUserOutput(user),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, autherror.ErrValidation)
	}
	if err := h.validate.Struct(input); err != nil {
		return errorResponse(c, autherror.ErrValidation)
	}

	user, pair, err := h.userService.Login(c.UserContext(), input, h.sessionMeta(c))
	if err != nil {
		return errorResponse(c, err)
	}

	h.setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiresAt)

	return c.Status(fiber.StatusOK).JSON(dto.AuthResponse{
		AccessToken: pair.AccessToken,
		User:        dto.NewUserOutput(user),
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return errorResponse(c, autherror.ErrTokenInvalid)
	}

	if err := h.userService.Logout(c.UserContext(), token); err != nil {
		return errorResponse(c, err)
	}

	h.clearRefreshCookie(c)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "logged out successfully",
	})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies(refreshCookieName)
	if refreshToken == "" {
		return errorResponse(c, autherror.ErrTokenInvalid)
	}

	accessToken, err := h.userService.Refresh(c.UserContext(), refreshToken)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"accessToken": accessToken,
	})
}

func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	user := AuthUser(c)
	if user == nil {
		return errorResponse(c, autherror.ErrTokenInvalid)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user": dto.NewUserOutput(user),
	})
}

func (h *AuthHandler) sessionMeta(c *fiber.Ctx) dto.SessionMeta {
	ua := string(c.Request().Header.UserAgent())
	info := useragent.Parse(ua)

	return dto.SessionMeta{
		IPAddress: c.IP(),
		UserAgent: ua,
		Device:    info.Device,
		Browser:   info.Browser,
		Platform:  info.Platform,
		Location:  h.geoResolver.Resolve(c.IP()),
	}
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   h.cfg.Env == "production",
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/api/users",
	})
}

func (h *AuthHandler) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.cfg.Env == "production",
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/api/users",
	})
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// errorResponse maps service errors onto the HTTP surface. Token failures
// collapse into one generic 401 so callers cannot probe which check failed;
// the locked state is the one deliberate disclosure.
func errorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, autherror.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	case errors.Is(err, autherror.ErrEmailAlreadyInUse):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": autherror.ErrEmailAlreadyInUse.Error()})
	case errors.Is(err, autherror.ErrInvalidCredentials):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": autherror.ErrInvalidCredentials.Error()})
	case errors.Is(err, autherror.ErrAccountLocked):
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{"error": autherror.ErrAccountLocked.Error()})
	case errors.Is(err, autherror.ErrTooManySessions):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": autherror.ErrTooManySessions.Error()})
	case errors.Is(err, autherror.ErrTokenExpired),
		errors.Is(err, autherror.ErrTokenInvalid),
		errors.Is(err, autherror.ErrTokenRevoked),
		errors.Is(err, autherror.ErrUserNotFound):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	case errors.Is(err, autherror.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": autherror.ErrSessionNotFound.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error, please try again"})
	}
}
