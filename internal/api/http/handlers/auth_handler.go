package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-auth/internal/api/dto"
	"github.com/spec-kit/shop-auth/internal/auth"
	"github.com/spec-kit/shop-auth/internal/service"
	apperrors "github.com/spec-kit/shop-auth/pkg/util/errorutil"
)

// AuthHandler exposes the session endpoints.
type AuthHandler struct {
	sessions *service.SessionService
	accounts *service.AccountService
	cookies  auth.CookiePolicy
}

// NewAuthHandler constructs handler.
func NewAuthHandler(sessions *service.SessionService, accounts *service.AccountService, cookies auth.CookiePolicy) *AuthHandler {
	return &AuthHandler{sessions: sessions, accounts: accounts, cookies: cookies}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError("email and password required", dto.ValidationDetails(err))
	}

	principal, pair, err := h.sessions.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.cookies.Place(auth.NewFiberTransport(c), pair)
	return c.JSON(dto.NewSessionResponse(principal, pair))
}

// Refresh handles POST /api/auth/refresh-token. The token comes from the refresh
// cookie or, failing that, the JSON body.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&req)
	}
	transport := auth.NewFiberTransport(c)
	token := h.cookies.RefreshToken(transport, req.RefreshToken)

	principal, pair, err := h.sessions.Refresh(c.UserContext(), token)
	if err != nil {
		if apperrors.ToDomainError(err).HTTPStatus == http.StatusUnauthorized {
			h.cookies.Clear(transport)
		}
		return err
	}

	h.cookies.Place(transport, pair)
	return c.JSON(dto.NewSessionResponse(principal, pair))
}

// Logout handles POST /api/auth/logout. It always succeeds.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&req)
	}
	transport := auth.NewFiberTransport(c)

	h.sessions.Logout(c.UserContext(), h.cookies.RefreshToken(transport, req.RefreshToken))
	h.cookies.Clear(transport)
	return c.JSON(fiber.Map{"message": "logged out"})
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError("invalid registration", dto.ValidationDetails(err))
	}

	user, err := h.accounts.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated()
	}
	return c.JSON(fiber.Map{"principal": dto.NewPrincipalResponse(principal)})
}
