package handler

import (
	"go-inventory-checklist/internal/middleware"
	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ReferenceHandler serves suppliers and categories.
type ReferenceHandler struct {
	service service.ReferenceService
}

func NewReferenceHandler(s service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: s}
}

func (h *ReferenceHandler) GetSuppliers(c *fiber.Ctx) error {
	suppliers, err := h.service.GetSuppliers(middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(suppliers)
}

func (h *ReferenceHandler) CreateSupplier(c *fiber.Ctx) error {
	var req model.InsertSupplier
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	supplier, err := h.service.CreateSupplier(middleware.CurrentUser(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Supplier created", "data": supplier})
}

func (h *ReferenceHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetCategories(middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

func (h *ReferenceHandler) CreateCategory(c *fiber.Ctx) error {
	var req model.InsertCategory
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	category, err := h.service.CreateCategory(middleware.CurrentUser(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Category created", "data": category})
}
