package repository

import (
	"time"

	"go-inventory-checklist/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementRepository is append-only: there is no update or delete.
type MovementRepository interface {
	Create(tx *gorm.DB, movement *model.StockMovement) error
	FindAll(companyID *uuid.UUID, filter MovementFilter) ([]model.StockMovement, error)
	FindByID(id uuid.UUID) (*model.StockMovement, error)
	GetStockMovement(companyID *uuid.UUID, startDate, endDate time.Time) ([]StockMovementData, error)
}

type MovementFilter struct {
	ProductID *uuid.UUID
	Type      model.MovementType
	Limit     int
}

// StockMovementData is one day of the movement chart
type StockMovementData struct {
	Date     string          `json:"date"`
	Inbound  decimal.Decimal `json:"inbound"`
	Outbound decimal.Decimal `json:"outbound"`
}

type movementRepo struct {
	db *gorm.DB
}

func NewMovementRepo(db *gorm.DB) MovementRepository {
	return &movementRepo{db}
}

func (r *movementRepo) Create(tx *gorm.DB, movement *model.StockMovement) error {
	if tx == nil {
		tx = r.db
	}
	return mapError(tx.Omit("Product", "User").Create(movement).Error)
}

func (r *movementRepo) FindAll(companyID *uuid.UUID, filter MovementFilter) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	q := scoped(r.db, companyID).Preload("Product").Preload("User")
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Order("created_at DESC").Find(&movements).Error
	return movements, err
}

func (r *movementRepo) FindByID(id uuid.UUID) (*model.StockMovement, error) {
	var movement model.StockMovement
	if err := r.db.Preload("Product").Preload("User").First(&movement, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &movement, nil
}

func (r *movementRepo) GetStockMovement(companyID *uuid.UUID, startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	// aggregate movements per day; ajuste rows are not counted as flow
	rows, err := scoped(r.db.Model(&model.StockMovement{}), companyID).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN type = 'entrada' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN type = 'saida' THEN quantity ELSE 0 END), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		if len(data.Date) > 10 {
			data.Date = data.Date[:10]
		}
		results = append(results, data)
	}

	return results, rows.Err()
}
