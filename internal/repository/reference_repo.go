package repository

import (
	"go-inventory-checklist/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferenceRepository covers the per-tenant lookup tables products point at.
type ReferenceRepository interface {
	CreateSupplier(supplier *model.Supplier) error
	FindSuppliers(companyID *uuid.UUID) ([]model.Supplier, error)
	FindSupplierByID(id uuid.UUID) (*model.Supplier, error)
	CreateCategory(category *model.Category) error
	FindCategories(companyID *uuid.UUID) ([]model.Category, error)
	FindCategoryByID(id uuid.UUID) (*model.Category, error)
}

type referenceRepo struct {
	db *gorm.DB
}

func NewReferenceRepo(db *gorm.DB) ReferenceRepository {
	return &referenceRepo{db}
}

func (r *referenceRepo) CreateSupplier(supplier *model.Supplier) error {
	return mapError(r.db.Create(supplier).Error)
}

func (r *referenceRepo) FindSuppliers(companyID *uuid.UUID) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := scoped(r.db, companyID).Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}

func (r *referenceRepo) FindSupplierByID(id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.First(&supplier, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &supplier, nil
}

func (r *referenceRepo) CreateCategory(category *model.Category) error {
	return mapError(r.db.Create(category).Error)
}

func (r *referenceRepo) FindCategories(companyID *uuid.UUID) ([]model.Category, error) {
	var categories []model.Category
	err := scoped(r.db, companyID).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *referenceRepo) FindCategoryByID(id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := r.db.First(&category, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &category, nil
}
