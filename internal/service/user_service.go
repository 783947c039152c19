package service

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/repository"
	"go-inventory-checklist/pkg/realtime"
	"go-inventory-checklist/pkg/validator"
)

type UserService interface {
	CreateUser(actor *model.User, in *model.InsertUser) (*model.User, error)
	UpdateUser(actor *model.User, id uuid.UUID, req *UpdateUserRequest) (*model.User, error)
	GetAllUsers(actor *model.User) ([]model.UserResponse, error)
	GetUserByID(actor *model.User, id uuid.UUID) (*model.UserResponse, error)
}

type UpdateUserRequest struct {
	Name        *string     `json:"name"`
	Role        *model.Role `json:"role" validate:"omitempty,oneof=MASTER admin gerente operador"`
	Permissions []string    `json:"permissions"`
	IsActive    *bool       `json:"is_active"`
}

type userService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	publisher   ChangePublisher
	log         zerolog.Logger
}

func NewUserService(db *gorm.DB, userRepo repository.UserRepository, companyRepo repository.CompanyRepository, publisher ChangePublisher, log zerolog.Logger) UserService {
	return &userService{
		db:          db,
		userRepo:    userRepo,
		companyRepo: companyRepo,
		publisher:   publisherOrNop(publisher),
		log:         log.With().Str("service", "user").Logger(),
	}
}

// CreateUser provisions an account. Tenant admins create users of their own
// company at or below their role; the company ceiling is checked in the same
// transaction as the insert.
func (s *userService) CreateUser(actor *model.User, in *model.InsertUser) (*model.User, error) {
	if !actor.Role.IsPlatform() {
		if in.Role == model.RoleMaster || !actor.Role.AtLeast(in.Role) {
			return nil, ErrForbidden
		}
		var requested uuid.UUID
		if in.CompanyID != nil {
			requested = *in.CompanyID
		}
		companyID, err := companyFor(actor, requested)
		if err != nil {
			return nil, err
		}
		in.CompanyID = &companyID
	}
	if in.Role == model.RoleMaster {
		in.CompanyID = nil
	}

	user, err := in.ToModel()
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if user.CompanyID != nil {
			var company model.Company
			if err := tx.First(&company, "id = ?", *user.CompanyID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			count, err := s.companyRepo.CountUsers(tx, company.ID)
			if err != nil {
				return err
			}
			if count >= int64(company.MaxUsers) {
				return ErrUserLimitReached
			}
		}
		return s.userRepo.Create(tx, user)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(realtime.TableUsers, realtime.EventInsert, user.CompanyID, user.ToResponse(), nil)
	s.log.Info().Str("user_id", user.ID.String()).Str("created_by", actor.ID.String()).Msg("user created")
	return user, nil
}

func (s *userService) UpdateUser(actor *model.User, id uuid.UUID, req *UpdateUserRequest) (*model.User, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if user.CompanyID == nil {
		if !actor.Role.IsPlatform() {
			return nil, ErrNotFound
		}
	} else if !canSee(actor, *user.CompanyID) {
		return nil, ErrNotFound
	}
	if !actor.Role.AtLeast(user.Role) {
		return nil, ErrForbidden
	}

	old := user.ToResponse()
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		if *req.Role == model.RoleMaster || !actor.Role.AtLeast(*req.Role) {
			return nil, ErrForbidden
		}
		user.Role = *req.Role
	}
	if req.Permissions != nil {
		user.Permissions = req.Permissions
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	s.publisher.Publish(realtime.TableUsers, realtime.EventUpdate, user.CompanyID, user.ToResponse(), old)
	return user, nil
}

func (s *userService) GetAllUsers(actor *model.User) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(scopeOf(actor))
	if err != nil {
		return nil, err
	}
	responses := make([]model.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(actor *model.User, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if user.CompanyID == nil && !actor.Role.IsPlatform() {
		return nil, ErrNotFound
	}
	if user.CompanyID != nil && !canSee(actor, *user.CompanyID) {
		return nil, ErrNotFound
	}
	resp := user.ToResponse()
	return &resp, nil
}
