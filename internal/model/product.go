package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	CompanyID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"company_id"`
	Name         string           `gorm:"type:varchar(255);not null" json:"name"`
	Description  string           `gorm:"type:text" json:"description,omitempty"`
	Unit         string           `gorm:"type:varchar(20);not null" json:"unit"`
	CurrentStock decimal.Decimal  `gorm:"type:numeric(12,3);not null;default:0" json:"current_stock"`
	MinStock     decimal.Decimal  `gorm:"type:numeric(12,3);not null;default:0" json:"min_stock"`
	MaxStock     decimal.Decimal  `gorm:"type:numeric(12,3);not null;default:0" json:"max_stock"`
	Cost         *decimal.Decimal `gorm:"type:numeric(12,2)" json:"cost,omitempty"`

	SupplierID      *uuid.UUID `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	Supplier        *Supplier  `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	CategoryID      *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category        *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	BestPurchaseDay *Weekday   `gorm:"type:varchar(10)" json:"best_purchase_day,omitempty"`
	IsActive        bool       `gorm:"not null" json:"is_active"`
}

// IsLowStock is true when the current stock reached the minimum.
func (p *Product) IsLowStock() bool {
	return p.CurrentStock.LessThanOrEqual(p.MinStock)
}
