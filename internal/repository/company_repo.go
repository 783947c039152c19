package repository

import (
	"go-inventory-checklist/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanyRepository interface {
	Create(company *model.Company) error
	FindAll() ([]model.Company, error)
	FindByID(id uuid.UUID) (*model.Company, error)
	Update(company *model.Company) error
	CountUsers(tx *gorm.DB, companyID uuid.UUID) (int64, error)
}

type companyRepo struct {
	db *gorm.DB
}

func NewCompanyRepo(db *gorm.DB) CompanyRepository {
	return &companyRepo{db}
}

func (r *companyRepo) Create(company *model.Company) error {
	return mapError(r.db.Create(company).Error)
}

func (r *companyRepo) FindAll() ([]model.Company, error) {
	var companies []model.Company
	err := r.db.Order("name ASC").Find(&companies).Error
	return companies, err
}

func (r *companyRepo) FindByID(id uuid.UUID) (*model.Company, error) {
	var company model.Company
	if err := r.db.First(&company, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &company, nil
}

func (r *companyRepo) Update(company *model.Company) error {
	return mapError(r.db.Save(company).Error)
}

// CountUsers runs on tx so the ceiling check can share the insert's transaction.
func (r *companyRepo) CountUsers(tx *gorm.DB, companyID uuid.UUID) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var n int64
	err := tx.Model(&model.User{}).Where("company_id = ?", companyID).Count(&n).Error
	return n, err
}
