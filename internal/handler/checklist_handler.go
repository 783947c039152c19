package handler

import (
	"go-inventory-checklist/internal/middleware"
	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ChecklistHandler struct {
	service service.ChecklistService
}

func NewChecklistHandler(s service.ChecklistService) *ChecklistHandler {
	return &ChecklistHandler{service: s}
}

func (h *ChecklistHandler) GetTemplates(c *fiber.Ctx) error {
	templates, err := h.service.GetTemplates(middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(templates)
}

func (h *ChecklistHandler) GetTemplate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid template ID"})
	}
	template, err := h.service.GetTemplate(middleware.CurrentUser(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(template)
}

func (h *ChecklistHandler) CreateTemplate(c *fiber.Ctx) error {
	var req model.InsertChecklistTemplate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	template, err := h.service.CreateTemplate(middleware.CurrentUser(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Template created", "data": template})
}

// GetExecutions lists runs; ?open=true keeps the unfinished ones
func (h *ChecklistHandler) GetExecutions(c *fiber.Ctx) error {
	executions, err := h.service.GetExecutions(middleware.CurrentUser(c), c.QueryBool("open"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(executions)
}

func (h *ChecklistHandler) StartExecution(c *fiber.Ctx) error {
	var req model.InsertChecklistExecution
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	execution, err := h.service.StartExecution(middleware.CurrentUser(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Checklist started", "data": execution})
}

// CompleteItem handles POST /api/checklists/executions/:id/items
func (h *ChecklistHandler) CompleteItem(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid execution ID"})
	}
	var req model.InsertChecklistExecutionItem
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	item, err := h.service.CompleteItem(middleware.CurrentUser(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Item recorded", "data": item})
}

// CompleteExecution handles POST /api/checklists/executions/:id/complete
func (h *ChecklistHandler) CompleteExecution(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid execution ID"})
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
		}
	}
	execution, err := h.service.CompleteExecution(middleware.CurrentUser(c), id, req.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Checklist completed", "data": execution})
}
