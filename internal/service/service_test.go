package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go-inventory-checklist/internal/repository"
	"go-inventory-checklist/internal/testutil"
	"go-inventory-checklist/pkg/jwt"
	"go-inventory-checklist/pkg/realtime"
)

const testSecret = "test-jwt-secret"

type publishedChange struct {
	table     string
	event     realtime.EventType
	companyID *uuid.UUID
	newRow    interface{}
}

// recorder is a ChangePublisher that keeps every call.
type recorder struct {
	mu      sync.Mutex
	changes []publishedChange
}

func (r *recorder) Publish(table string, event realtime.EventType, companyID *uuid.UUID, newRow, oldRow interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, publishedChange{table: table, event: event, companyID: companyID, newRow: newRow})
}

func (r *recorder) tables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.changes))
	for i, c := range r.changes {
		out[i] = c.table
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	pub       *recorder
	verifier  *jwt.Verifier
	auth      AuthService
	users     UserService
	companies CompanyService
	inventory InventoryService
	reference ReferenceService
	checklist ChecklistService
	dashboard DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	pub := &recorder{}
	log := zerolog.Nop()

	userRepo := repository.NewUserRepo(db)
	companyRepo := repository.NewCompanyRepo(db)
	productRepo := repository.NewProductRepo(db)
	movementRepo := repository.NewMovementRepo(db)
	referenceRepo := repository.NewReferenceRepo(db)
	verifier := jwt.NewVerifier(testSecret)

	return &fixture{
		db:        db,
		pub:       pub,
		verifier:  verifier,
		auth:      NewAuthService(verifier, userRepo, repository.NewSuperAdminRepo(db), pub, log),
		users:     NewUserService(db, userRepo, companyRepo, pub, log),
		companies: NewCompanyService(companyRepo, pub, log),
		inventory: NewInventoryService(db, productRepo, movementRepo, referenceRepo, pub, log),
		reference: NewReferenceService(referenceRepo, log),
		checklist: NewChecklistService(repository.NewChecklistRepo(db), pub, log),
		dashboard: NewDashboardService(repository.NewDashboardRepo(db), movementRepo),
	}
}

func (f *fixture) claims(t *testing.T, authUserID, email string) *jwt.Claims {
	t.Helper()
	token, err := f.verifier.GenerateToken(authUserID, email, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := f.verifier.ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	return claims
}
