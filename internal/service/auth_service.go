package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/repository"
	"go-inventory-checklist/pkg/identity"
	"go-inventory-checklist/pkg/jwt"
	"go-inventory-checklist/pkg/realtime"
)

type AuthService interface {
	// Authenticate verifies a provider access token and loads the linked local user.
	Authenticate(token string) (*jwt.Claims, *model.User, error)
	// SyncUser resolves (and links on first sight) the local account of an identity.
	SyncUser(claims *jwt.Claims, reported *identity.User) (*model.User, error)
	SeedSuperAdmin(in *model.InsertSuperAdmin) error
}

type authService struct {
	verifier       *jwt.Verifier
	userRepo       repository.UserRepository
	superAdminRepo repository.SuperAdminRepository
	publisher      ChangePublisher
	log            zerolog.Logger
	now            func() time.Time
}

func NewAuthService(verifier *jwt.Verifier, userRepo repository.UserRepository, superAdminRepo repository.SuperAdminRepository, publisher ChangePublisher, log zerolog.Logger) AuthService {
	return &authService{
		verifier:       verifier,
		userRepo:       userRepo,
		superAdminRepo: superAdminRepo,
		publisher:      publisherOrNop(publisher),
		log:            log.With().Str("service", "auth").Logger(),
		now:            time.Now,
	}
}

func (s *authService) Authenticate(token string) (*jwt.Claims, *model.User, error) {
	claims, err := s.verifier.ValidateToken(token)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.userRepo.FindByAuthUserID(claims.AuthUserID())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return claims, nil, ErrNoLocalAccount
		}
		return claims, nil, err
	}
	if err := checkActive(user); err != nil {
		return claims, nil, err
	}
	return claims, user, nil
}

func (s *authService) SyncUser(claims *jwt.Claims, reported *identity.User) (*model.User, error) {
	authUserID := claims.AuthUserID()
	if reported != nil {
		if err := reported.Validate(); err != nil {
			return nil, err
		}
		// the body may not speak for a different identity than the token
		if reported.ID != authUserID {
			return nil, ErrForbidden
		}
	}

	user, err := s.resolve(claims, reported)
	if err != nil {
		return nil, err
	}
	if err := checkActive(user); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.userRepo.UpdateLastLogin(user.ID, now); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLoginAt = &now

	s.publisher.Publish(realtime.TableUsers, realtime.EventUpdate, user.CompanyID, user.ToResponse(), nil)
	s.log.Info().Str("user_id", user.ID.String()).Str("role", string(user.Role)).Msg("user synced")
	return user, nil
}

// resolve looks the identity up by provider id, then by email (linking a
// pre-provisioned account), then among the platform super admins.
func (s *authService) resolve(claims *jwt.Claims, reported *identity.User) (*model.User, error) {
	authUserID := claims.AuthUserID()

	user, err := s.userRepo.FindByAuthUserID(authUserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// only the signed claim may pick an account by email
	email := claims.Email
	if email != "" {
		user, err = s.userRepo.FindByEmail(email)
		switch {
		case err == nil:
			if user.AuthUserID != nil && *user.AuthUserID != authUserID {
				return nil, ErrForbidden
			}
			if err := s.userRepo.LinkAuthUser(user.ID, authUserID); err != nil {
				return nil, fmt.Errorf("link identity: %w", err)
			}
			user.AuthUserID = &authUserID
			s.log.Info().Str("user_id", user.ID.String()).Msg("linked pre-provisioned user to identity")
			return user, nil
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}

	admin, err := s.superAdminRepo.FindByAuthUserID(authUserID)
	if errors.Is(err, repository.ErrNotFound) && email != "" {
		admin, err = s.superAdminRepo.FindByEmail(email)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoLocalAccount
		}
		return nil, err
	}
	return s.createMaster(admin, authUserID, reported)
}

func (s *authService) createMaster(admin *model.SuperAdmin, authUserID string, reported *identity.User) (*model.User, error) {
	name := admin.Name
	if name == "" && reported != nil {
		name = reported.DisplayName()
	}
	if name == "" {
		name = admin.Email
	}
	in := &model.InsertUser{
		Email:      admin.Email,
		Name:       name,
		Role:       model.RoleMaster,
		AuthUserID: &authUserID,
	}
	user, err := in.ToModel()
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(nil, user); err != nil {
		return nil, fmt.Errorf("create master user: %w", err)
	}
	s.publisher.Publish(realtime.TableUsers, realtime.EventInsert, nil, user.ToResponse(), nil)
	return user, nil
}

func checkActive(user *model.User) error {
	if !user.IsActive {
		return ErrUserInactive
	}
	if user.Company != nil && !user.Company.IsActive {
		return ErrCompanyInactive
	}
	return nil
}

// SeedSuperAdmin registers a platform operator unless one already exists with that email.
func (s *authService) SeedSuperAdmin(in *model.InsertSuperAdmin) error {
	admin, err := in.ToModel()
	if err != nil {
		return err
	}
	if _, err := s.superAdminRepo.FindByEmail(admin.Email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if err := s.superAdminRepo.Create(admin); err != nil {
		return err
	}
	s.log.Info().Str("email", admin.Email).Msg("super admin seeded")
	return nil
}
