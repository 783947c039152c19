package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"go-inventory-checklist/internal/service"
	"go-inventory-checklist/pkg/validator"
)

// respondError maps service errors to status codes with an {"error": ...} body.
func respondError(c *fiber.Ctx, err error) error {
	var verr *validator.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(400).JSON(fiber.Map{"error": verr.Error(), "details": verr.Errors})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicate):
		return c.Status(409).JSON(fiber.Map{"error": "already exists"})
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrNoLocalAccount),
		errors.Is(err, service.ErrUserInactive),
		errors.Is(err, service.ErrCompanyInactive):
		return c.Status(403).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrUserLimitReached),
		errors.Is(err, service.ErrExecutionCompleted),
		errors.Is(err, service.ErrRequiredItemsOpen),
		errors.Is(err, service.ErrTemplateInactive):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrItemNotInTemplate):
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}
