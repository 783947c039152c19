package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-inventory-checklist/pkg/validator"
)

// Insert payloads mirror their tables without the server-assigned columns
// (id, created_at and, where the table has one, updated_at). Each one is
// validated before it is turned into a model.

type InsertCompany struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Plan     PlanTier `json:"plan" validate:"omitempty,oneof=basic premium enterprise"`
	IsActive *bool    `json:"is_active"`
	MaxUsers int      `json:"max_users" validate:"omitempty,min=1"`
}

func (in *InsertCompany) ToModel() (*Company, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	c := &Company{
		Name:     in.Name,
		Email:    in.Email,
		Plan:     in.Plan,
		IsActive: true,
		MaxUsers: in.MaxUsers,
	}
	if c.Plan == "" {
		c.Plan = PlanBasic
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if c.MaxUsers == 0 {
		c.MaxUsers = 5
	}
	return c, nil
}

type InsertSuperAdmin struct {
	AuthUserID string `json:"auth_user_id" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name"`
}

func (in *InsertSuperAdmin) ToModel() (*SuperAdmin, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return &SuperAdmin{AuthUserID: in.AuthUserID, Email: in.Email, Name: in.Name}, nil
}

type InsertUser struct {
	Email       string     `json:"email" validate:"required,email"`
	Password    *string    `json:"password,omitempty" validate:"omitempty,min=6"`
	Name        string     `json:"name" validate:"required"`
	Role        Role       `json:"role" validate:"required,oneof=MASTER admin gerente operador"`
	AuthUserID  *string    `json:"auth_user_id,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
	CompanyID   *uuid.UUID `json:"company_id" validate:"required_unless=Role MASTER"`
	IsActive    *bool      `json:"is_active"`
}

func (in *InsertUser) ToModel() (*User, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	u := &User{
		Email:       in.Email,
		Name:        in.Name,
		Role:        in.Role,
		AuthUserID:  in.AuthUserID,
		Permissions: in.Permissions,
		CompanyID:   in.CompanyID,
		IsActive:    true,
	}
	if u.Permissions == nil {
		u.Permissions = append([]string(nil), DefaultPermissions[in.Role]...)
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.Password != nil {
		if err := u.SetPassword(*in.Password); err != nil {
			return nil, err
		}
	}
	return u, nil
}

type InsertSupplier struct {
	CompanyID   uuid.UUID `json:"company_id" validate:"uuid_required"`
	Name        string    `json:"name" validate:"required"`
	ContactName string    `json:"contact_name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email" validate:"omitempty,email"`
}

func (in *InsertSupplier) ToModel() (*Supplier, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return &Supplier{
		CompanyID:   in.CompanyID,
		Name:        in.Name,
		ContactName: in.ContactName,
		Phone:       in.Phone,
		Email:       in.Email,
	}, nil
}

type InsertCategory struct {
	CompanyID   uuid.UUID `json:"company_id" validate:"uuid_required"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
}

func (in *InsertCategory) ToModel() (*Category, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return &Category{CompanyID: in.CompanyID, Name: in.Name, Description: in.Description}, nil
}

type InsertProduct struct {
	CompanyID       uuid.UUID        `json:"company_id" validate:"uuid_required"`
	Name            string           `json:"name" validate:"required"`
	Description     string           `json:"description"`
	Unit            string           `json:"unit" validate:"required,max=20"`
	CurrentStock    decimal.Decimal  `json:"current_stock"`
	MinStock        decimal.Decimal  `json:"min_stock"`
	MaxStock        decimal.Decimal  `json:"max_stock"`
	Cost            *decimal.Decimal `json:"cost,omitempty"`
	SupplierID      *uuid.UUID       `json:"supplier_id,omitempty"`
	CategoryID      *uuid.UUID       `json:"category_id,omitempty"`
	BestPurchaseDay *Weekday         `json:"best_purchase_day,omitempty" validate:"omitempty,oneof=segunda terca quarta quinta sexta sabado domingo"`
	IsActive        *bool            `json:"is_active"`
}

func (in *InsertProduct) ToModel() (*Product, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	p := &Product{
		CompanyID:       in.CompanyID,
		Name:            in.Name,
		Description:     in.Description,
		Unit:            in.Unit,
		CurrentStock:    in.CurrentStock,
		MinStock:        in.MinStock,
		MaxStock:        in.MaxStock,
		Cost:            in.Cost,
		SupplierID:      in.SupplierID,
		CategoryID:      in.CategoryID,
		BestPurchaseDay: in.BestPurchaseDay,
		IsActive:        true,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return p, nil
}

// InsertStockMovement carries only what the caller decides; previous/new stock
// are computed when the movement is applied.
type InsertStockMovement struct {
	CompanyID  uuid.UUID        `json:"company_id" validate:"uuid_required"`
	ProductID  uuid.UUID        `json:"product_id" validate:"uuid_required"`
	UserID     uuid.UUID        `json:"user_id" validate:"uuid_required"`
	Type       MovementType     `json:"type" validate:"required,oneof=entrada saida ajuste"`
	Quantity   decimal.Decimal  `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	TotalPrice *decimal.Decimal `json:"total_price,omitempty"`
	Notes      string           `json:"notes"`
}

func (in *InsertStockMovement) ToModel() (*StockMovement, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return &StockMovement{
		CompanyID:  in.CompanyID,
		ProductID:  in.ProductID,
		UserID:     in.UserID,
		Type:       in.Type,
		Quantity:   in.Quantity,
		UnitPrice:  in.UnitPrice,
		TotalPrice: in.TotalPrice,
		Notes:      in.Notes,
	}, nil
}

// ChecklistItemInput is an item nested in a template payload; the template id
// is assigned once the template exists.
type ChecklistItemInput struct {
	Title            string `json:"title" validate:"required"`
	Description      string `json:"description"`
	Position         int    `json:"position" validate:"min=0"`
	EstimatedMinutes int    `json:"estimated_minutes" validate:"min=0"`
	IsRequired       bool   `json:"is_required"`
}

type InsertChecklistTemplate struct {
	CompanyID   uuid.UUID            `json:"company_id" validate:"uuid_required"`
	Name        string               `json:"name" validate:"required"`
	Description string               `json:"description"`
	Type        ChecklistType        `json:"type" validate:"required,oneof=abertura fechamento limpeza"`
	IsActive    *bool                `json:"is_active"`
	Items       []ChecklistItemInput `json:"items" validate:"dive"`
}

func (in *InsertChecklistTemplate) ToModel() (*ChecklistTemplate, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	t := &ChecklistTemplate{
		CompanyID:   in.CompanyID,
		Name:        in.Name,
		Description: in.Description,
		Type:        in.Type,
		IsActive:    true,
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	for i, it := range in.Items {
		pos := it.Position
		if pos == 0 {
			pos = i + 1
		}
		t.Items = append(t.Items, ChecklistItem{
			CompanyID:        in.CompanyID,
			Title:            it.Title,
			Description:      it.Description,
			Position:         pos,
			EstimatedMinutes: it.EstimatedMinutes,
			IsRequired:       it.IsRequired,
		})
	}
	return t, nil
}

type InsertChecklistItem struct {
	CompanyID  uuid.UUID `json:"company_id" validate:"uuid_required"`
	TemplateID uuid.UUID `json:"template_id" validate:"uuid_required"`
	ChecklistItemInput
}

func (in *InsertChecklistItem) ToModel() (*ChecklistItem, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return &ChecklistItem{
		CompanyID:        in.CompanyID,
		TemplateID:       in.TemplateID,
		Title:            in.Title,
		Description:      in.Description,
		Position:         in.Position,
		EstimatedMinutes: in.EstimatedMinutes,
		IsRequired:       in.IsRequired,
	}, nil
}

type InsertChecklistExecution struct {
	CompanyID  uuid.UUID `json:"company_id" validate:"uuid_required"`
	TemplateID uuid.UUID `json:"template_id" validate:"uuid_required"`
	UserID     uuid.UUID `json:"user_id" validate:"uuid_required"`
	Notes      string    `json:"notes"`
}

func (in *InsertChecklistExecution) ToModel(now time.Time) (*ChecklistExecution, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return &ChecklistExecution{
		CompanyID:  in.CompanyID,
		TemplateID: in.TemplateID,
		UserID:     in.UserID,
		StartedAt:  now,
		Notes:      in.Notes,
	}, nil
}

type InsertChecklistExecutionItem struct {
	CompanyID   uuid.UUID `json:"company_id" validate:"uuid_required"`
	ExecutionID uuid.UUID `json:"execution_id" validate:"uuid_required"`
	ItemID      uuid.UUID `json:"item_id" validate:"uuid_required"`
	IsCompleted bool      `json:"is_completed"`
	Notes       string    `json:"notes"`
}

func (in *InsertChecklistExecutionItem) ToModel(now time.Time) (*ChecklistExecutionItem, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	ei := &ChecklistExecutionItem{
		CompanyID:   in.CompanyID,
		ExecutionID: in.ExecutionID,
		ItemID:      in.ItemID,
		IsCompleted: in.IsCompleted,
		Notes:       in.Notes,
	}
	if in.IsCompleted {
		ei.CompletedAt = &now
	}
	return ei, nil
}
