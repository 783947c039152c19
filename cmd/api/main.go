package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go-inventory-checklist/internal/handler"
	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/repository"
	"go-inventory-checklist/internal/service"
	"go-inventory-checklist/internal/ws"
	"go-inventory-checklist/pkg/config"
	"go-inventory-checklist/pkg/database"
	"go-inventory-checklist/pkg/jwt"
	"go-inventory-checklist/pkg/logger"
	"go-inventory-checklist/pkg/metrics"
)

func main() {
	// 1. Load Config
	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg, err := config.Load()
	if err != nil {
		boot.Fatal().Err(err).Msg("config load failed")
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	if cfg.Identity.JWTSecret == "" {
		log.Fatal().Msg("IDENTITY_JWT_SECRET is required to verify access tokens")
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.DB, log, cfg.App.Env == "development")
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	if err := migrate(db, cfg.DB.AutoMigrate); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// 3. Metrics + WebSocket Hub
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(cfg.App.Name, reg)

	wsHub := ws.NewHub(log, httpMetrics)
	go wsHub.Run()

	// 4. Dependency Injection (Wiring Layers)
	userRepo := repository.NewUserRepo(db)
	superAdminRepo := repository.NewSuperAdminRepo(db)
	companyRepo := repository.NewCompanyRepo(db)
	productRepo := repository.NewProductRepo(db)
	movementRepo := repository.NewMovementRepo(db)
	referenceRepo := repository.NewReferenceRepo(db)
	checklistRepo := repository.NewChecklistRepo(db)
	dashboardRepo := repository.NewDashboardRepo(db)

	verifier := jwt.NewVerifier(cfg.Identity.JWTSecret)
	authService := service.NewAuthService(verifier, userRepo, superAdminRepo, wsHub, log)
	services := handler.Services{
		Auth:      authService,
		Users:     service.NewUserService(db, userRepo, companyRepo, wsHub, log),
		Companies: service.NewCompanyService(companyRepo, wsHub, log),
		Inventory: service.NewInventoryService(db, productRepo, movementRepo, referenceRepo, wsHub, log),
		Reference: service.NewReferenceService(referenceRepo, log),
		Checklist: service.NewChecklistService(checklistRepo, wsHub, log),
		Dashboard: service.NewDashboardService(dashboardRepo, movementRepo),
	}

	// 5. Seed the platform operator
	seedSuperAdmin(authService, cfg.Seed, log)

	// 6. Setup Fiber
	app := handler.NewRouter(handler.RouterConfig{
		AppName:  cfg.App.Name,
		Verifier: verifier,
		Hub:      wsHub,
		Metrics:  httpMetrics,
		Logger:   log,
	}, services)

	// 7. Graceful Shutdown
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("http server listening")
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Fatal().Err(err).Msg("http server stopped")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	wsHub.Stop()
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info().Msg("server exited")
}

func migrate(db *gorm.DB, auto bool) error {
	if auto {
		return database.AutoMigrate(db, model.All()...)
	}
	return database.Migrate(db)
}

func seedSuperAdmin(auth service.AuthService, seed config.SeedConfig, log zerolog.Logger) {
	if seed.SuperAdminEmail == "" {
		return
	}
	err := auth.SeedSuperAdmin(&model.InsertSuperAdmin{
		AuthUserID: seed.SuperAdminAuthUserID,
		Email:      seed.SuperAdminEmail,
		Name:       seed.SuperAdminName,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to seed super admin")
	}
}
