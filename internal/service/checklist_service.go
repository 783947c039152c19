package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/repository"
	"go-inventory-checklist/pkg/realtime"
)

type ChecklistService interface {
	CreateTemplate(actor *model.User, in *model.InsertChecklistTemplate) (*model.ChecklistTemplate, error)
	GetTemplates(actor *model.User) ([]model.ChecklistTemplate, error)
	GetTemplate(actor *model.User, id uuid.UUID) (*model.ChecklistTemplate, error)

	StartExecution(actor *model.User, in *model.InsertChecklistExecution) (*model.ChecklistExecution, error)
	CompleteItem(actor *model.User, executionID uuid.UUID, in *model.InsertChecklistExecutionItem) (*model.ChecklistExecutionItem, error)
	CompleteExecution(actor *model.User, executionID uuid.UUID, notes string) (*model.ChecklistExecution, error)
	GetExecutions(actor *model.User, openOnly bool) ([]model.ChecklistExecution, error)
}

type checklistService struct {
	repo      repository.ChecklistRepository
	publisher ChangePublisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewChecklistService(repo repository.ChecklistRepository, publisher ChangePublisher, log zerolog.Logger) ChecklistService {
	return &checklistService{
		repo:      repo,
		publisher: publisherOrNop(publisher),
		log:       log.With().Str("service", "checklist").Logger(),
		now:       time.Now,
	}
}

func (s *checklistService) CreateTemplate(actor *model.User, in *model.InsertChecklistTemplate) (*model.ChecklistTemplate, error) {
	companyID, err := companyFor(actor, in.CompanyID)
	if err != nil {
		return nil, err
	}
	in.CompanyID = companyID
	template, err := in.ToModel()
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateTemplate(template); err != nil {
		return nil, err
	}
	s.log.Info().Str("template_id", template.ID.String()).Int("items", len(template.Items)).Msg("checklist template created")
	return template, nil
}

func (s *checklistService) GetTemplates(actor *model.User) ([]model.ChecklistTemplate, error) {
	return s.repo.FindTemplates(scopeOf(actor))
}

func (s *checklistService) GetTemplate(actor *model.User, id uuid.UUID) (*model.ChecklistTemplate, error) {
	template, err := s.repo.FindTemplateByID(id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, template.CompanyID) {
		return nil, ErrNotFound
	}
	return template, nil
}

func (s *checklistService) StartExecution(actor *model.User, in *model.InsertChecklistExecution) (*model.ChecklistExecution, error) {
	template, err := s.GetTemplate(actor, in.TemplateID)
	if err != nil {
		return nil, err
	}
	if !template.IsActive {
		return nil, ErrTemplateInactive
	}
	in.CompanyID = template.CompanyID
	in.UserID = actor.ID

	execution, err := in.ToModel(s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateExecution(execution); err != nil {
		return nil, err
	}
	s.publisher.Publish(realtime.TableChecklistExecutions, realtime.EventInsert, &execution.CompanyID, execution, nil)
	return execution, nil
}

func (s *checklistService) openExecution(actor *model.User, id uuid.UUID) (*model.ChecklistExecution, error) {
	execution, err := s.repo.FindExecutionByID(id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, execution.CompanyID) {
		return nil, ErrNotFound
	}
	if execution.IsCompleted {
		return nil, ErrExecutionCompleted
	}
	return execution, nil
}

// CompleteItem records an item of the execution; the item must belong to the
// execution's template.
func (s *checklistService) CompleteItem(actor *model.User, executionID uuid.UUID, in *model.InsertChecklistExecutionItem) (*model.ChecklistExecutionItem, error) {
	execution, err := s.openExecution(actor, executionID)
	if err != nil {
		return nil, err
	}
	if !templateHasItem(execution.Template, in.ItemID) {
		return nil, ErrItemNotInTemplate
	}
	in.CompanyID = execution.CompanyID
	in.ExecutionID = execution.ID

	item, err := in.ToModel(s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertExecutionItem(item); err != nil {
		return nil, err
	}
	s.publisher.Publish(realtime.TableChecklistExecutions, realtime.EventUpdate, &execution.CompanyID, item, nil)
	return item, nil
}

func templateHasItem(template *model.ChecklistTemplate, itemID uuid.UUID) bool {
	if template == nil {
		return false
	}
	for _, it := range template.Items {
		if it.ID == itemID {
			return true
		}
	}
	return false
}

// CompleteExecution closes the run once every required item is done.
func (s *checklistService) CompleteExecution(actor *model.User, executionID uuid.UUID, notes string) (*model.ChecklistExecution, error) {
	execution, err := s.openExecution(actor, executionID)
	if err != nil {
		return nil, err
	}

	done := make(map[uuid.UUID]bool, len(execution.Items))
	for _, it := range execution.Items {
		if it.IsCompleted {
			done[it.ItemID] = true
		}
	}
	if execution.Template != nil {
		for _, it := range execution.Template.Items {
			if it.IsRequired && !done[it.ID] {
				return nil, ErrRequiredItemsOpen
			}
		}
	}

	now := s.now().UTC()
	execution.IsCompleted = true
	execution.CompletedAt = &now
	if notes != "" {
		execution.Notes = notes
	}
	if err := s.repo.UpdateExecution(execution); err != nil {
		return nil, err
	}
	s.publisher.Publish(realtime.TableChecklistExecutions, realtime.EventUpdate, &execution.CompanyID, execution, nil)
	s.log.Info().Str("execution_id", execution.ID.String()).Msg("checklist execution completed")
	return execution, nil
}

func (s *checklistService) GetExecutions(actor *model.User, openOnly bool) ([]model.ChecklistExecution, error) {
	return s.repo.FindExecutions(scopeOf(actor), openOnly)
}
