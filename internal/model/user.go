package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is an application account. Users authenticated by the identity provider
// have no password and are linked through AuthUserID.
type User struct {
	BaseModel
	Email       string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password    *string    `gorm:"type:varchar(255)" json:"-"` // Hidden from JSON
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	Role        Role       `gorm:"type:varchar(20);not null" json:"role"`
	AuthUserID  *string    `gorm:"type:varchar(255);uniqueIndex" json:"auth_user_id,omitempty"`
	Permissions []string   `gorm:"serializer:json;type:text" json:"permissions,omitempty"`
	CompanyID   *uuid.UUID `gorm:"type:uuid;index" json:"company_id"`
	Company     *Company   `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	hashed := string(hashedPassword)
	u.Password = &hashed
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	if u.Password == nil {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(*u.Password), []byte(password))
	return err == nil
}

// HasPermission checks the explicit permission list; MASTER has every permission.
func (u *User) HasPermission(code string) bool {
	if u.Role == RoleMaster {
		return true
	}
	for _, p := range u.Permissions {
		if p == code {
			return true
		}
	}
	return false
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        Role       `json:"role"`
	AuthUserID  *string    `json:"auth_user_id,omitempty"`
	Permissions []string   `json:"permissions"`
	CompanyID   *uuid.UUID `json:"company_id"`
	CompanyName string     `json:"company_name,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		AuthUserID:  u.AuthUserID,
		Permissions: u.Permissions,
		CompanyID:   u.CompanyID,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
	}
	if resp.Permissions == nil {
		resp.Permissions = []string{}
	}
	if u.Company != nil {
		resp.CompanyName = u.Company.Name
	}
	return resp
}
