package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-auth/internal/domain"
	apperrors "github.com/spec-kit/shop-auth/pkg/util/errorutil"
)

// Authorize checks the principal against the allowed roles.
// A nil principal is unauthenticated; admin satisfies every check.
func Authorize(principal *domain.Principal, allowed ...domain.Role) error {
	if principal == nil {
		return apperrors.NewUnauthenticated()
	}
	for _, role := range allowed {
		if principal.Role.Satisfies(role) {
			return nil
		}
	}
	if principal.Role == domain.RoleAdmin {
		return nil
	}
	return apperrors.NewForbidden("insufficient role")
}

// RequireRole ensures the attached principal holds one of the allowed roles.
// It must run after AuthMiddleware.Handle.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	roles := append([]domain.Role(nil), allowed...)

	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		if err := Authorize(principal, roles...); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures some principal is attached.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthenticated()
		}
		return c.Next()
	}
}
