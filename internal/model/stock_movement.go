package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockMovement is an immutable ledger entry. Quantity is always positive;
// Type says how it applies (ajuste sets the absolute stock).
type StockMovement struct {
	LedgerModel
	CompanyID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"company_id"`
	ProductID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"product_id"`
	Product       *Product         `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	UserID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type          MovementType     `gorm:"type:varchar(10);not null" json:"type"`
	Quantity      decimal.Decimal  `gorm:"type:numeric(12,3);not null" json:"quantity"`
	PreviousStock decimal.Decimal  `gorm:"type:numeric(12,3);not null" json:"previous_stock"`
	NewStock      decimal.Decimal  `gorm:"type:numeric(12,3);not null" json:"new_stock"`
	UnitPrice     *decimal.Decimal `gorm:"type:numeric(12,2)" json:"unit_price,omitempty"`
	TotalPrice    *decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_price,omitempty"`
	Notes         string           `gorm:"type:text" json:"notes,omitempty"`
}
