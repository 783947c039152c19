package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/repository"
	"go-inventory-checklist/pkg/realtime"
	"go-inventory-checklist/pkg/validator"
)

type InventoryService interface {
	CreateProduct(actor *model.User, in *model.InsertProduct) (*model.Product, error)
	UpdateProduct(actor *model.User, id uuid.UUID, req *UpdateProductRequest) (*model.Product, error)
	GetAllProducts(actor *model.User) ([]model.Product, error)
	GetLowStock(actor *model.User) ([]model.Product, error)
	RecordMovement(actor *model.User, in *model.InsertStockMovement) (*model.StockMovement, error)
	GetMovements(actor *model.User, filter repository.MovementFilter) ([]model.StockMovement, error)
}

// UpdateProductRequest changes catalog fields only; stock moves through movements.
type UpdateProductRequest struct {
	Name            *string          `json:"name" validate:"omitempty,min=1"`
	Description     *string          `json:"description"`
	Unit            *string          `json:"unit" validate:"omitempty,min=1,max=20"`
	MinStock        *decimal.Decimal `json:"min_stock"`
	MaxStock        *decimal.Decimal `json:"max_stock"`
	Cost            *decimal.Decimal `json:"cost"`
	SupplierID      *uuid.UUID       `json:"supplier_id"`
	CategoryID      *uuid.UUID       `json:"category_id"`
	BestPurchaseDay *model.Weekday   `json:"best_purchase_day" validate:"omitempty,oneof=segunda terca quarta quinta sexta sabado domingo"`
	IsActive        *bool            `json:"is_active"`
}

type inventoryService struct {
	db            *gorm.DB
	productRepo   repository.ProductRepository
	movementRepo  repository.MovementRepository
	referenceRepo repository.ReferenceRepository
	publisher     ChangePublisher
	log           zerolog.Logger
}

func NewInventoryService(db *gorm.DB, pRepo repository.ProductRepository, mRepo repository.MovementRepository, rRepo repository.ReferenceRepository, publisher ChangePublisher, log zerolog.Logger) InventoryService {
	return &inventoryService{
		db:            db,
		productRepo:   pRepo,
		movementRepo:  mRepo,
		referenceRepo: rRepo,
		publisher:     publisherOrNop(publisher),
		log:           log.With().Str("service", "inventory").Logger(),
	}
}

func (s *inventoryService) CreateProduct(actor *model.User, in *model.InsertProduct) (*model.Product, error) {
	companyID, err := companyFor(actor, in.CompanyID)
	if err != nil {
		return nil, err
	}
	in.CompanyID = companyID

	product, err := in.ToModel()
	if err != nil {
		return nil, err
	}
	if product.CurrentStock.IsNegative() {
		return nil, ErrInvalidQuantity
	}
	if err := s.checkReferences(product.CompanyID, product.SupplierID, product.CategoryID); err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	s.publisher.Publish(realtime.TableProducts, realtime.EventInsert, &product.CompanyID, product, nil)
	s.log.Info().Str("product_id", product.ID.String()).Str("user_id", actor.ID.String()).Msg("product created")
	return product, nil
}

func (s *inventoryService) UpdateProduct(actor *model.User, id uuid.UUID, req *UpdateProductRequest) (*model.Product, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, product.CompanyID) {
		return nil, ErrNotFound
	}
	old := *product

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.MinStock != nil {
		product.MinStock = *req.MinStock
	}
	if req.MaxStock != nil {
		product.MaxStock = *req.MaxStock
	}
	if req.Cost != nil {
		product.Cost = req.Cost
	}
	if req.SupplierID != nil {
		product.SupplierID = req.SupplierID
		product.Supplier = nil
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
		product.Category = nil
	}
	if req.BestPurchaseDay != nil {
		product.BestPurchaseDay = req.BestPurchaseDay
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := s.checkReferences(product.CompanyID, req.SupplierID, req.CategoryID); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	s.publisher.Publish(realtime.TableProducts, realtime.EventUpdate, &product.CompanyID, product, &old)
	return product, nil
}

// checkReferences rejects suppliers and categories of another company.
func (s *inventoryService) checkReferences(companyID uuid.UUID, supplierID, categoryID *uuid.UUID) error {
	if supplierID != nil {
		supplier, err := s.referenceRepo.FindSupplierByID(*supplierID)
		if err != nil {
			return fmt.Errorf("supplier: %w", err)
		}
		if supplier.CompanyID != companyID {
			return fmt.Errorf("supplier: %w", ErrNotFound)
		}
	}
	if categoryID != nil {
		category, err := s.referenceRepo.FindCategoryByID(*categoryID)
		if err != nil {
			return fmt.Errorf("category: %w", err)
		}
		if category.CompanyID != companyID {
			return fmt.Errorf("category: %w", ErrNotFound)
		}
	}
	return nil
}

func (s *inventoryService) GetAllProducts(actor *model.User) ([]model.Product, error) {
	return s.productRepo.FindAll(scopeOf(actor))
}

func (s *inventoryService) GetLowStock(actor *model.User) ([]model.Product, error) {
	return s.productRepo.FindLowStock(scopeOf(actor))
}

// applyMovement computes the stock after a movement: entrada adds, saida
// subtracts and may not go below zero, ajuste sets the absolute quantity.
func applyMovement(current decimal.Decimal, kind model.MovementType, qty decimal.Decimal) (decimal.Decimal, error) {
	switch kind {
	case model.MovementIn:
		if !qty.IsPositive() {
			return current, ErrInvalidQuantity
		}
		return current.Add(qty), nil
	case model.MovementOut:
		if !qty.IsPositive() {
			return current, ErrInvalidQuantity
		}
		if current.LessThan(qty) {
			return current, ErrInsufficientStock
		}
		return current.Sub(qty), nil
	case model.MovementAdjust:
		if qty.IsNegative() {
			return current, ErrInvalidQuantity
		}
		return qty, nil
	}
	return current, fmt.Errorf("unknown movement type %q", kind)
}

// RecordMovement appends to the ledger and updates the product stock in one
// transaction, holding the product row lock.
func (s *inventoryService) RecordMovement(actor *model.User, in *model.InsertStockMovement) (*model.StockMovement, error) {
	companyID, err := companyFor(actor, in.CompanyID)
	if err != nil {
		return nil, err
	}
	in.CompanyID = companyID
	in.UserID = actor.ID

	movement, err := in.ToModel()
	if err != nil {
		return nil, err
	}
	if movement.TotalPrice == nil && movement.UnitPrice != nil {
		total := movement.UnitPrice.Mul(movement.Quantity)
		movement.TotalPrice = &total
	}

	var before, after model.Product
	err = s.db.Transaction(func(tx *gorm.DB) error {
		product, err := s.productRepo.LockByID(tx, movement.ProductID)
		if err != nil {
			return err
		}
		if product.CompanyID != movement.CompanyID {
			return ErrNotFound
		}

		newStock, err := applyMovement(product.CurrentStock, movement.Type, movement.Quantity)
		if err != nil {
			return err
		}
		movement.PreviousStock = product.CurrentStock
		movement.NewStock = newStock

		if err := s.productRepo.UpdateStock(tx, product.ID, newStock); err != nil {
			return err
		}
		if err := s.movementRepo.Create(tx, movement); err != nil {
			return err
		}

		before = *product
		after = *product
		after.CurrentStock = newStock
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(realtime.TableStockMovements, realtime.EventInsert, &movement.CompanyID, movement, nil)
	s.publisher.Publish(realtime.TableProducts, realtime.EventUpdate, &after.CompanyID, &after, &before)
	s.log.Info().
		Str("product_id", movement.ProductID.String()).
		Str("type", string(movement.Type)).
		Str("quantity", movement.Quantity.String()).
		Str("new_stock", movement.NewStock.String()).
		Msg("stock movement recorded")
	return movement, nil
}

func (s *inventoryService) GetMovements(actor *model.User, filter repository.MovementFilter) ([]model.StockMovement, error) {
	return s.movementRepo.FindAll(scopeOf(actor), filter)
}
