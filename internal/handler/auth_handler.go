package handler

import (
	"go-inventory-checklist/internal/middleware"
	"go-inventory-checklist/internal/service"
	"go-inventory-checklist/pkg/apiclient"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(s service.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

// SyncUser resolves the caller's local account from its identity
// POST /api/auth/sync-user
func (h *AuthHandler) SyncUser(c *fiber.Ctx) error {
	var req apiclient.SyncUserRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
		}
	}

	user, err := h.service.SyncUser(middleware.Claims(c), req.User)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user.ToResponse()})
}

// Me returns the authenticated local user
// GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user": middleware.CurrentUser(c).ToResponse()})
}
