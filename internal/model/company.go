package model

// Company is the tenant root.
type Company struct {
	BaseModel
	Name     string   `gorm:"type:varchar(255);not null" json:"name"`
	Email    string   `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Plan     PlanTier `gorm:"type:varchar(20);not null" json:"plan"`
	IsActive bool     `gorm:"not null" json:"is_active"`
	MaxUsers int      `gorm:"not null" json:"max_users"`
}

// SuperAdmin is a platform operator keyed to an identity-provider user id.
// It is not tied to any company.
type SuperAdmin struct {
	BaseModel
	AuthUserID string `gorm:"type:varchar(255);uniqueIndex;not null" json:"auth_user_id"`
	Email      string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name       string `gorm:"type:varchar(255)" json:"name"`
}

func (SuperAdmin) TableName() string {
	return "super_admins"
}
