package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/shop-auth/internal/auth"
	"github.com/spec-kit/shop-auth/internal/service"
	apperrors "github.com/spec-kit/shop-auth/pkg/util/errorutil"
)

// AdminHandler exposes administrative session controls.
type AdminHandler struct {
	sessions *service.SessionService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(sessions *service.SessionService) *AdminHandler {
	return &AdminHandler{sessions: sessions}
}

// RevokeSessions handles DELETE /api/admin/users/:id/sessions.
func (h *AdminHandler) RevokeSessions(c *fiber.Ctx) error {
	userID := c.Params("id")
	if _, err := uuid.Parse(userID); err != nil {
		return apperrors.NewValidationError("invalid user id", map[string]any{"id": userID})
	}

	actor, _ := auth.PrincipalFromContext(c)
	if err := h.sessions.RevokeAllFor(c.UserContext(), userID, actor); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
