package handler

import (
	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CompanyHandler struct {
	service service.CompanyService
}

func NewCompanyHandler(s service.CompanyService) *CompanyHandler {
	return &CompanyHandler{service: s}
}

func (h *CompanyHandler) GetCompanies(c *fiber.Ctx) error {
	companies, err := h.service.GetAllCompanies()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(companies)
}

func (h *CompanyHandler) CreateCompany(c *fiber.Ctx) error {
	var req model.InsertCompany
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	company, err := h.service.CreateCompany(&req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Company created", "data": company})
}

func (h *CompanyHandler) UpdateCompany(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid company ID"})
	}
	var req service.UpdateCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	company, err := h.service.UpdateCompany(id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Company updated", "data": company})
}
