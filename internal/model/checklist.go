package model

import (
	"time"

	"github.com/google/uuid"
)

// ChecklistTemplate is a named routine (opening, closing, cleaning) of a company.
type ChecklistTemplate struct {
	BaseModel
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Type        ChecklistType   `gorm:"type:varchar(20);not null" json:"type"`
	IsActive    bool            `gorm:"not null" json:"is_active"`
	Items       []ChecklistItem `gorm:"foreignKey:TemplateID" json:"items,omitempty"`
}

// ChecklistItem is an ordered step of a template.
type ChecklistItem struct {
	BaseModel
	CompanyID        uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	TemplateID       uuid.UUID `gorm:"type:uuid;not null;index" json:"template_id"`
	Title            string    `gorm:"type:varchar(255);not null" json:"title"`
	Description      string    `gorm:"type:text" json:"description,omitempty"`
	Position         int       `gorm:"not null" json:"position"`
	EstimatedMinutes int       `gorm:"not null" json:"estimated_minutes"`
	IsRequired       bool      `gorm:"not null" json:"is_required"`
}

// ChecklistExecution is one run of a template by a user.
type ChecklistExecution struct {
	BaseModel
	CompanyID   uuid.UUID                `gorm:"type:uuid;not null;index" json:"company_id"`
	TemplateID  uuid.UUID                `gorm:"type:uuid;not null;index" json:"template_id"`
	Template    *ChecklistTemplate       `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
	UserID      uuid.UUID                `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User                    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	StartedAt   time.Time                `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time               `json:"completed_at,omitempty"`
	IsCompleted bool                     `gorm:"not null" json:"is_completed"`
	Notes       string                   `gorm:"type:text" json:"notes,omitempty"`
	Items       []ChecklistExecutionItem `gorm:"foreignKey:ExecutionID" json:"items,omitempty"`
}

// ChecklistExecutionItem records the completion of one item within an execution.
type ChecklistExecutionItem struct {
	BaseModel
	CompanyID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	ExecutionID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_execution_item" json:"execution_id"`
	ItemID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_execution_item" json:"item_id"`
	Item        *ChecklistItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	IsCompleted bool           `gorm:"not null" json:"is_completed"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Notes       string         `gorm:"type:text" json:"notes,omitempty"`
}
