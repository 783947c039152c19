package handler

import (
	"bytes"
	"strconv"
	"time"

	"go-inventory-checklist/internal/middleware"
	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/report"
	"go-inventory-checklist/internal/repository"
	"go-inventory-checklist/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var req model.InsertProduct
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	product, err := h.service.CreateProduct(middleware.CurrentUser(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	productID, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req service.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.UpdateProduct(middleware.CurrentUser(c), productID, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

// GetLowStock lists products at or below their minimum
// GET /api/products/low-stock
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	products, err := h.service.GetLowStock(middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

// ExportProducts downloads the stock as a spreadsheet
// GET /api/products/export
func (h *InventoryHandler) ExportProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}

	var buf bytes.Buffer
	if err := report.WriteStock(&buf, products); err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Attachment(report.StockFileName(time.Now()))
	return c.Send(buf.Bytes())
}

func (h *InventoryHandler) CreateMovement(c *fiber.Ctx) error {
	var req model.InsertStockMovement
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	movement, err := h.service.RecordMovement(middleware.CurrentUser(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Movement recorded", "data": movement})
}

// GetMovements lists the ledger, newest first
// Query params: product_id, type, limit
func (h *InventoryHandler) GetMovements(c *fiber.Ctx) error {
	var filter repository.MovementFilter
	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
		}
		filter.ProductID = &id
	}
	filter.Type = model.MovementType(c.Query("type"))
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid limit"})
		}
		filter.Limit = limit
	}

	movements, err := h.service.GetMovements(middleware.CurrentUser(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(movements)
}
