package repository

import (
	"time"

	"go-inventory-checklist/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardRepository interface {
	GetDashboardStats(companyID *uuid.UUID, dayStart time.Time) (*DashboardStats, error)
}

type DashboardStats struct {
	TotalProducts     int64           `json:"total_products"`
	LowStockCount     int64           `json:"low_stock_count"`
	TotalValuation    decimal.Decimal `json:"total_valuation"`
	MovementsToday    int64           `json:"movements_today"`
	OpenChecklistRuns int64           `json:"open_checklist_runs"`
}

type dashboardRepo struct {
	db *gorm.DB
}

func NewDashboardRepo(db *gorm.DB) DashboardRepository {
	return &dashboardRepo{db}
}

func (r *dashboardRepo) GetDashboardStats(companyID *uuid.UUID, dayStart time.Time) (*DashboardStats, error) {
	var stats DashboardStats

	// Total Products
	if err := scoped(r.db.Model(&model.Product{}), companyID).
		Where("is_active = ?", true).
		Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}

	// Low Stock Count
	if err := scoped(r.db.Model(&model.Product{}), companyID).
		Where("is_active = ? AND current_stock <= min_stock", true).
		Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	// Total Valuation, products without a cost are left out
	row := scoped(r.db.Model(&model.Product{}), companyID).
		Select("COALESCE(SUM(current_stock * cost), 0)").
		Where("is_active = ? AND cost IS NOT NULL", true).
		Row()
	if err := row.Scan(&stats.TotalValuation); err != nil {
		return nil, err
	}

	if err := scoped(r.db.Model(&model.StockMovement{}), companyID).
		Where("created_at >= ?", dayStart).
		Count(&stats.MovementsToday).Error; err != nil {
		return nil, err
	}

	if err := scoped(r.db.Model(&model.ChecklistExecution{}), companyID).
		Where("is_completed = ?", false).
		Count(&stats.OpenChecklistRuns).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
