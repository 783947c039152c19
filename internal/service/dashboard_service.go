package service

import (
	"time"

	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/repository"
)

type DashboardService interface {
	GetStockMovement(actor *model.User, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(actor *model.User) (*repository.DashboardStats, error)
}

type dashboardService struct {
	dashboardRepo repository.DashboardRepository
	movementRepo  repository.MovementRepository
	now           func() time.Time
}

func NewDashboardService(dashboardRepo repository.DashboardRepository, movementRepo repository.MovementRepository) DashboardService {
	return &dashboardService{dashboardRepo: dashboardRepo, movementRepo: movementRepo, now: time.Now}
}

func (s *dashboardService) GetStockMovement(actor *model.User, days int) ([]repository.StockMovementData, error) {
	if days <= 0 {
		days = 7
	}
	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.movementRepo.GetStockMovement(scopeOf(actor), startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(actor *model.User) (*repository.DashboardStats, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.dashboardRepo.GetDashboardStats(scopeOf(actor), dayStart)
}
