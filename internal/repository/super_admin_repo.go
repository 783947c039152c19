package repository

import (
	"go-inventory-checklist/internal/model"

	"gorm.io/gorm"
)

type SuperAdminRepository interface {
	FindByAuthUserID(authUserID string) (*model.SuperAdmin, error)
	FindByEmail(email string) (*model.SuperAdmin, error)
	Create(admin *model.SuperAdmin) error
}

type superAdminRepo struct {
	db *gorm.DB
}

func NewSuperAdminRepo(db *gorm.DB) SuperAdminRepository {
	return &superAdminRepo{db}
}

func (r *superAdminRepo) FindByAuthUserID(authUserID string) (*model.SuperAdmin, error) {
	var admin model.SuperAdmin
	if err := r.db.Where("auth_user_id = ?", authUserID).First(&admin).Error; err != nil {
		return nil, mapError(err)
	}
	return &admin, nil
}

func (r *superAdminRepo) FindByEmail(email string) (*model.SuperAdmin, error) {
	var admin model.SuperAdmin
	if err := r.db.Where("email = ?", email).First(&admin).Error; err != nil {
		return nil, mapError(err)
	}
	return &admin, nil
}

func (r *superAdminRepo) Create(admin *model.SuperAdmin) error {
	return mapError(r.db.Create(admin).Error)
}
