package repository

import (
	"go-inventory-checklist/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll(companyID *uuid.UUID) ([]model.Product, error)
	FindLowStock(companyID *uuid.UUID) ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	Update(product *model.Product) error
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	UpdateStock(tx *gorm.DB, id uuid.UUID, newStock decimal.Decimal) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return mapError(r.db.Omit("Supplier", "Category").Create(product).Error)
}

func (r *productRepo) FindAll(companyID *uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := scoped(r.db, companyID).Preload("Supplier").Preload("Category").Order("name ASC").Find(&products).Error
	return products, err
}

// FindLowStock lists active products at or below their minimum.
func (r *productRepo) FindLowStock(companyID *uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := scoped(r.db, companyID).
		Preload("Supplier").
		Where("is_active = ? AND current_stock <= min_stock", true).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Supplier").Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &product, nil
}

func (r *productRepo) Update(product *model.Product) error {
	return mapError(r.db.Omit("Supplier", "Category").Save(product).Error)
}

// LockByID reads the row with FOR UPDATE inside tx.
func (r *productRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &product, nil
}

// UpdateStock must run inside the movement's transaction
func (r *productRepo) UpdateStock(tx *gorm.DB, id uuid.UUID, newStock decimal.Decimal) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Update("current_stock", newStock).Error
}
