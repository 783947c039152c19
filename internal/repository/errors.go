package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// isUniqueViolation reports a unique constraint violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// mapError turns driver errors into the package sentinels.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isUniqueViolation(err):
		return ErrDuplicate
	}
	return err
}

// scoped restricts a query to one company. A nil companyID is the platform
// view and sees every tenant.
func scoped(db *gorm.DB, companyID *uuid.UUID) *gorm.DB {
	if companyID == nil {
		return db
	}
	return db.Where("company_id = ?", *companyID)
}
