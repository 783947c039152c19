package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"go-inventory-checklist/internal/middleware"
	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/service"
	"go-inventory-checklist/internal/ws"
	"go-inventory-checklist/pkg/jwt"
	"go-inventory-checklist/pkg/logger"
	"go-inventory-checklist/pkg/metrics"
)

// Services bundles what the router wires into handlers.
type Services struct {
	Auth      service.AuthService
	Users     service.UserService
	Companies service.CompanyService
	Inventory service.InventoryService
	Reference service.ReferenceService
	Checklist service.ChecklistService
	Dashboard service.DashboardService
}

type RouterConfig struct {
	AppName  string
	Verifier *jwt.Verifier
	Hub      *ws.Hub
	Metrics  *metrics.HTTPMetrics // optional
	Logger   zerolog.Logger
}

// NewRouter builds the fiber app with every route of the API.
func NewRouter(cfg RouterConfig, svc Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New()) // Panic recovery
	app.Use(requestid.New())
	app.Use(logger.Middleware(cfg.Logger))
	if cfg.Metrics != nil {
		app.Use(cfg.Metrics.Middleware())
		app.Get("/metrics", cfg.Metrics.Handler())
	}
	app.Use(cors.New()) // CORS

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Users)
	companyHandler := NewCompanyHandler(svc.Companies)
	invHandler := NewInventoryHandler(svc.Inventory)
	refHandler := NewReferenceHandler(svc.Reference)
	checklistHandler := NewChecklistHandler(svc.Checklist)
	dashHandler := NewDashboardHandler(svc.Dashboard)
	realtimeHandler := NewRealtimeHandler(cfg.Hub, cfg.Logger)

	api := app.Group("/api")

	// ============ TOKEN ONLY ============
	// sync runs before the local account is known
	api.Post("/auth/sync-user", middleware.RequireToken(cfg.Verifier), authHandler.SyncUser)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(svc.Auth))
	protected.Get("/auth/me", authHandler.Me)

	// Dashboard Routes
	protected.Get("/dashboard/stats", dashHandler.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", dashHandler.GetStockMovement)

	// User Routes
	protected.Get("/users", middleware.RequirePermission(model.PermUserView), userHandler.GetUsers)
	protected.Get("/users/:id", middleware.RequirePermission(model.PermUserView), userHandler.GetUser)
	protected.Post("/users", middleware.RequirePermission(model.PermUserCreate), userHandler.CreateUser)
	protected.Put("/users/:id", middleware.RequirePermission(model.PermUserCreate), userHandler.UpdateUser)

	// Product Routes
	protected.Get("/products", invHandler.GetProducts)
	protected.Get("/products/low-stock", invHandler.GetLowStock)
	protected.Get("/products/export", middleware.RequirePermission(model.PermProductExport), invHandler.ExportProducts)
	protected.Post("/products", middleware.RequirePermission(model.PermProductCreate), invHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePermission(model.PermProductUpdate), invHandler.UpdateProduct)

	// Movement Routes
	protected.Get("/movements", middleware.RequirePermission(model.PermMovementView), invHandler.GetMovements)
	protected.Post("/movements", middleware.RequirePermission(model.PermMovementCreate), invHandler.CreateMovement)

	// Reference Routes
	protected.Get("/suppliers", refHandler.GetSuppliers)
	protected.Post("/suppliers", middleware.RequirePermission(model.PermReferenceManage), refHandler.CreateSupplier)
	protected.Get("/categories", refHandler.GetCategories)
	protected.Post("/categories", middleware.RequirePermission(model.PermReferenceManage), refHandler.CreateCategory)

	// Checklist Routes
	checklists := protected.Group("/checklists")
	checklists.Get("/templates", checklistHandler.GetTemplates)
	checklists.Get("/templates/:id", checklistHandler.GetTemplate)
	checklists.Post("/templates", middleware.RequirePermission(model.PermChecklistManage), checklistHandler.CreateTemplate)
	checklists.Get("/executions", checklistHandler.GetExecutions)
	checklists.Post("/executions", middleware.RequirePermission(model.PermChecklistRun), checklistHandler.StartExecution)
	checklists.Post("/executions/:id/items", middleware.RequirePermission(model.PermChecklistRun), checklistHandler.CompleteItem)
	checklists.Post("/executions/:id/complete", middleware.RequirePermission(model.PermChecklistRun), checklistHandler.CompleteExecution)

	// Platform Routes
	master := protected.Group("/master", middleware.RequireRole(model.RoleMaster))
	master.Get("/users", userHandler.GetUsers)
	master.Get("/companies", companyHandler.GetCompanies)
	master.Post("/companies", companyHandler.CreateCompany)
	master.Put("/companies/:id", companyHandler.UpdateCompany)

	// WebSocket Route
	app.Use("/realtime/v1", realtimeHandler.Upgrade, middleware.RequireAuth(svc.Auth))
	app.Get("/realtime/v1", realtimeHandler.Feed())

	return app
}
