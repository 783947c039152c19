package service

import (
	"github.com/google/uuid"

	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/pkg/realtime"
)

// ChangePublisher receives every committed write; the realtime hub implements it.
type ChangePublisher interface {
	Publish(table string, event realtime.EventType, companyID *uuid.UUID, newRow, oldRow interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, realtime.EventType, *uuid.UUID, interface{}, interface{}) {}

func publisherOrNop(p ChangePublisher) ChangePublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// scopeOf is the company filter for the actor's reads: nil for MASTER.
func scopeOf(actor *model.User) *uuid.UUID {
	if actor.Role.IsPlatform() {
		return nil
	}
	return actor.CompanyID
}

// companyFor decides the company a write lands in. Tenant users always write to
// their own company; MASTER must name one.
func companyFor(actor *model.User, requested uuid.UUID) (uuid.UUID, error) {
	if actor.Role.IsPlatform() {
		if requested == uuid.Nil {
			return uuid.Nil, ErrForbidden
		}
		return requested, nil
	}
	if actor.CompanyID == nil {
		return uuid.Nil, ErrForbidden
	}
	if requested != uuid.Nil && requested != *actor.CompanyID {
		return uuid.Nil, ErrForbidden
	}
	return *actor.CompanyID, nil
}

// canSee reports whether a row of companyID is visible to the actor.
func canSee(actor *model.User, companyID uuid.UUID) bool {
	if actor.Role.IsPlatform() {
		return true
	}
	return actor.CompanyID != nil && *actor.CompanyID == companyID
}
