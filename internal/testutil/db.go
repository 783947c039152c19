// Package testutil holds fixtures shared by repository, service and handler tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-inventory-checklist/internal/model"
)

// NewDB opens a throwaway sqlite database with every table migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// SeedCompany inserts an active company with the given user ceiling.
func SeedCompany(t *testing.T, db *gorm.DB, name string, maxUsers int) *model.Company {
	t.Helper()
	c := &model.Company{Name: name, Email: name + "@example.com", Plan: model.PlanBasic, IsActive: true, MaxUsers: maxUsers}
	require.NoError(t, db.Create(c).Error)
	return c
}

// SeedUser inserts a user of company c (nil for MASTER) with the role's default permissions.
func SeedUser(t *testing.T, db *gorm.DB, c *model.Company, email string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{
		Email:       email,
		Name:        email,
		Role:        role,
		Permissions: append([]string(nil), model.DefaultPermissions[role]...),
		IsActive:    true,
	}
	if c != nil {
		u.CompanyID = &c.ID
	}
	require.NoError(t, db.Omit("Company").Create(u).Error)
	return u
}

// SeedProduct inserts an active product with the given stock and minimum.
func SeedProduct(t *testing.T, db *gorm.DB, c *model.Company, name string, stock, min int64) *model.Product {
	t.Helper()
	p := &model.Product{
		CompanyID:    c.ID,
		Name:         name,
		Unit:         "kg",
		CurrentStock: decimal.NewFromInt(stock),
		MinStock:     decimal.NewFromInt(min),
		MaxStock:     decimal.NewFromInt(stock * 2),
		IsActive:     true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}
