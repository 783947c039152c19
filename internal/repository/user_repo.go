package repository

import (
	"time"

	"go-inventory-checklist/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByEmail(email string) (*model.User, error)
	FindByID(id uuid.UUID) (*model.User, error)
	FindByAuthUserID(authUserID string) (*model.User, error)
	Create(tx *gorm.DB, user *model.User) error
	Update(user *model.User) error
	FindAll(companyID *uuid.UUID) ([]model.User, error)
	LinkAuthUser(userID uuid.UUID, authUserID string) error
	UpdateLastLogin(userID uuid.UUID, at time.Time) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Preload("Company").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (r *userRepo) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.Preload("Company").First(&user, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (r *userRepo) FindByAuthUserID(authUserID string) (*model.User, error) {
	var user model.User
	if err := r.db.Preload("Company").Where("auth_user_id = ?", authUserID).First(&user).Error; err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// Create uses tx when given, so callers can check the company ceiling in the
// same transaction.
func (r *userRepo) Create(tx *gorm.DB, user *model.User) error {
	if tx == nil {
		tx = r.db
	}
	return mapError(tx.Omit("Company").Create(user).Error)
}

func (r *userRepo) Update(user *model.User) error {
	return mapError(r.db.Omit("Company").Save(user).Error)
}

func (r *userRepo) FindAll(companyID *uuid.UUID) ([]model.User, error) {
	var users []model.User
	if err := scoped(r.db, companyID).Preload("Company").Order("name ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) LinkAuthUser(userID uuid.UUID, authUserID string) error {
	return mapError(r.db.Model(&model.User{}).Where("id = ?", userID).Update("auth_user_id", authUserID).Error)
}

func (r *userRepo) UpdateLastLogin(userID uuid.UUID, at time.Time) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Update("last_login_at", at).Error
}
