package service

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/repository"
	"go-inventory-checklist/pkg/realtime"
	"go-inventory-checklist/pkg/validator"
)

// CompanyService is the platform (MASTER) view of tenants.
type CompanyService interface {
	CreateCompany(in *model.InsertCompany) (*model.Company, error)
	UpdateCompany(id uuid.UUID, req *UpdateCompanyRequest) (*model.Company, error)
	GetAllCompanies() ([]model.Company, error)
}

type UpdateCompanyRequest struct {
	Name     *string         `json:"name" validate:"omitempty,min=1"`
	Plan     *model.PlanTier `json:"plan" validate:"omitempty,oneof=basic premium enterprise"`
	IsActive *bool           `json:"is_active"`
	MaxUsers *int            `json:"max_users" validate:"omitempty,min=1"`
}

type companyService struct {
	companyRepo repository.CompanyRepository
	publisher   ChangePublisher
	log         zerolog.Logger
}

func NewCompanyService(companyRepo repository.CompanyRepository, publisher ChangePublisher, log zerolog.Logger) CompanyService {
	return &companyService{
		companyRepo: companyRepo,
		publisher:   publisherOrNop(publisher),
		log:         log.With().Str("service", "company").Logger(),
	}
}

func (s *companyService) CreateCompany(in *model.InsertCompany) (*model.Company, error) {
	company, err := in.ToModel()
	if err != nil {
		return nil, err
	}
	if err := s.companyRepo.Create(company); err != nil {
		return nil, err
	}
	s.publisher.Publish(realtime.TableCompanies, realtime.EventInsert, &company.ID, company, nil)
	s.log.Info().Str("company_id", company.ID.String()).Str("name", company.Name).Msg("company created")
	return company, nil
}

func (s *companyService) UpdateCompany(id uuid.UUID, req *UpdateCompanyRequest) (*model.Company, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	company, err := s.companyRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	old := *company

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.Plan != nil {
		company.Plan = *req.Plan
	}
	if req.IsActive != nil {
		company.IsActive = *req.IsActive
	}
	if req.MaxUsers != nil {
		company.MaxUsers = *req.MaxUsers
	}
	if err := s.companyRepo.Update(company); err != nil {
		return nil, err
	}
	s.publisher.Publish(realtime.TableCompanies, realtime.EventUpdate, &company.ID, company, &old)
	return company, nil
}

func (s *companyService) GetAllCompanies() ([]model.Company, error) {
	return s.companyRepo.FindAll()
}
