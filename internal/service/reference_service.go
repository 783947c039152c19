package service

import (
	"github.com/rs/zerolog"

	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/repository"
)

type ReferenceService interface {
	CreateSupplier(actor *model.User, in *model.InsertSupplier) (*model.Supplier, error)
	GetSuppliers(actor *model.User) ([]model.Supplier, error)
	CreateCategory(actor *model.User, in *model.InsertCategory) (*model.Category, error)
	GetCategories(actor *model.User) ([]model.Category, error)
}

type referenceService struct {
	repo repository.ReferenceRepository
	log  zerolog.Logger
}

func NewReferenceService(repo repository.ReferenceRepository, log zerolog.Logger) ReferenceService {
	return &referenceService{repo: repo, log: log.With().Str("service", "reference").Logger()}
}

func (s *referenceService) CreateSupplier(actor *model.User, in *model.InsertSupplier) (*model.Supplier, error) {
	companyID, err := companyFor(actor, in.CompanyID)
	if err != nil {
		return nil, err
	}
	in.CompanyID = companyID
	supplier, err := in.ToModel()
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateSupplier(supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *referenceService) GetSuppliers(actor *model.User) ([]model.Supplier, error) {
	return s.repo.FindSuppliers(scopeOf(actor))
}

func (s *referenceService) CreateCategory(actor *model.User, in *model.InsertCategory) (*model.Category, error) {
	companyID, err := companyFor(actor, in.CompanyID)
	if err != nil {
		return nil, err
	}
	in.CompanyID = companyID
	category, err := in.ToModel()
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateCategory(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *referenceService) GetCategories(actor *model.User) ([]model.Category, error) {
	return s.repo.FindCategories(scopeOf(actor))
}
