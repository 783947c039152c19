package service

import (
	"errors"

	"go-inventory-checklist/internal/repository"
)

var (
	ErrNotFound  = repository.ErrNotFound
	ErrDuplicate = repository.ErrDuplicate

	ErrForbidden          = errors.New("forbidden")
	ErrNoLocalAccount     = errors.New("no local account for this identity")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrCompanyInactive    = errors.New("company is inactive")
	ErrUserLimitReached   = errors.New("company user limit reached")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInsufficientStock  = errors.New("insufficient stock remaining")
	ErrTemplateInactive   = errors.New("checklist template is inactive")
	ErrItemNotInTemplate  = errors.New("item does not belong to the execution's template")
	ErrExecutionCompleted = errors.New("checklist execution already completed")
	ErrRequiredItemsOpen  = errors.New("required checklist items are still open")
)
