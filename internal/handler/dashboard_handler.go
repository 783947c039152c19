package handler

import (
	"strconv"

	"go-inventory-checklist/internal/middleware"
	"go-inventory-checklist/internal/service"

	"github.com/gofiber/fiber/v2"
)

// maxChartDays bounds the daily aggregation window.
const maxChartDays = 90

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetStockMovement returns daily in/out totals of the caller's company
// GET /api/dashboard/stock-movement?days=7
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	days := 7
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid days"})
		}
		days = min(n, maxChartDays)
	}

	data, err := h.service.GetStockMovement(middleware.CurrentUser(c), days)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetDashboardStats handles GET /api/dashboard/stats; MASTER gets platform-wide totals
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
