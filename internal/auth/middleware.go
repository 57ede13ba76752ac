package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-auth/internal/domain"
	apperrors "github.com/spec-kit/shop-auth/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// AccessVerifier is the subset of Codec the gate needs.
type AccessVerifier interface {
	VerifyAccessToken(token string) (*domain.Principal, error)
}

// AuthMiddleware validates access tokens and attaches the principal. It performs no I/O.
type AuthMiddleware struct {
	tokens  AccessVerifier
	cookies CookiePolicy
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens AccessVerifier, cookies CookiePolicy) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, cookies: cookies}
}

// Authenticate resolves the principal from the request transport.
func (m *AuthMiddleware) Authenticate(t Transport) (*domain.Principal, error) {
	token := m.cookies.AccessToken(t)
	if token == "" {
		return nil, apperrors.NewMissingToken("access token required")
	}

	principal, err := m.tokens.VerifyAccessToken(token)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return nil, apperrors.NewExpiredToken(err)
		}
		return nil, apperrors.NewInvalidToken(err)
	}
	return principal, nil
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	principal, err := m.Authenticate(NewFiberTransport(c))
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok && principal != nil
}
