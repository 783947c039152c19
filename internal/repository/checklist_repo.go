package repository

import (
	"go-inventory-checklist/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChecklistRepository interface {
	CreateTemplate(template *model.ChecklistTemplate) error
	FindTemplates(companyID *uuid.UUID) ([]model.ChecklistTemplate, error)
	FindTemplateByID(id uuid.UUID) (*model.ChecklistTemplate, error)
	CreateItem(item *model.ChecklistItem) error
	FindItemByID(id uuid.UUID) (*model.ChecklistItem, error)

	CreateExecution(execution *model.ChecklistExecution) error
	FindExecutions(companyID *uuid.UUID, openOnly bool) ([]model.ChecklistExecution, error)
	FindExecutionByID(id uuid.UUID) (*model.ChecklistExecution, error)
	UpdateExecution(execution *model.ChecklistExecution) error
	UpsertExecutionItem(item *model.ChecklistExecutionItem) error
}

type checklistRepo struct {
	db *gorm.DB
}

func NewChecklistRepo(db *gorm.DB) ChecklistRepository {
	return &checklistRepo{db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// CreateTemplate inserts the template and its items together.
func (r *checklistRepo) CreateTemplate(template *model.ChecklistTemplate) error {
	return mapError(r.db.Create(template).Error)
}

func (r *checklistRepo) FindTemplates(companyID *uuid.UUID) ([]model.ChecklistTemplate, error) {
	var templates []model.ChecklistTemplate
	err := scoped(r.db, companyID).Preload("Items", orderedItems).Order("name ASC").Find(&templates).Error
	return templates, err
}

func (r *checklistRepo) FindTemplateByID(id uuid.UUID) (*model.ChecklistTemplate, error) {
	var template model.ChecklistTemplate
	if err := r.db.Preload("Items", orderedItems).First(&template, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &template, nil
}

func (r *checklistRepo) CreateItem(item *model.ChecklistItem) error {
	return mapError(r.db.Create(item).Error)
}

func (r *checklistRepo) FindItemByID(id uuid.UUID) (*model.ChecklistItem, error) {
	var item model.ChecklistItem
	if err := r.db.First(&item, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &item, nil
}

func (r *checklistRepo) CreateExecution(execution *model.ChecklistExecution) error {
	return mapError(r.db.Omit("Template", "User", "Items").Create(execution).Error)
}

func (r *checklistRepo) FindExecutions(companyID *uuid.UUID, openOnly bool) ([]model.ChecklistExecution, error) {
	var executions []model.ChecklistExecution
	q := scoped(r.db, companyID).Preload("Template").Preload("User").Preload("Items")
	if openOnly {
		q = q.Where("is_completed = ?", false)
	}
	err := q.Order("started_at DESC").Find(&executions).Error
	return executions, err
}

func (r *checklistRepo) FindExecutionByID(id uuid.UUID) (*model.ChecklistExecution, error) {
	var execution model.ChecklistExecution
	err := r.db.
		Preload("Template.Items", orderedItems).
		Preload("User").
		Preload("Items.Item").
		First(&execution, "id = ?", id).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &execution, nil
}

func (r *checklistRepo) UpdateExecution(execution *model.ChecklistExecution) error {
	return mapError(r.db.Omit(clause.Associations).Save(execution).Error)
}

// UpsertExecutionItem records one item per execution; a second call for the
// same item overwrites the first.
func (r *checklistRepo) UpsertExecutionItem(item *model.ChecklistExecutionItem) error {
	err := r.db.Omit("Item").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "execution_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_completed", "completed_at", "notes", "updated_at"}),
	}).Create(item).Error
	if err != nil {
		return mapError(err)
	}
	// the conflicting row keeps its own id
	var stored model.ChecklistExecutionItem
	if err := r.db.Where("execution_id = ? AND item_id = ?", item.ExecutionID, item.ItemID).First(&stored).Error; err != nil {
		return mapError(err)
	}
	stored.Item = item.Item
	*item = stored
	return nil
}
