package model

import "github.com/google/uuid"

type Supplier struct {
	BaseModel
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	ContactName string    `gorm:"type:varchar(255)" json:"contact_name,omitempty"`
	Phone       string    `gorm:"type:varchar(30)" json:"phone,omitempty"`
	Email       string    `gorm:"type:varchar(255)" json:"email,omitempty"`
}

type Category struct {
	BaseModel
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
}
