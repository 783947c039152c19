package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"go-inventory-checklist/pkg/identity"
	"go-inventory-checklist/pkg/validator"
)

const SyncUserPath = "/api/auth/sync-user"

// LocalUser is the application's own user record as returned by the API.
type LocalUser struct {
	ID          uuid.UUID  `json:"id" validate:"uuid_required"`
	Email       string     `json:"email" validate:"required,email"`
	Name        string     `json:"name"`
	Role        string     `json:"role" validate:"required,oneof=MASTER admin gerente operador"`
	AuthUserID  *string    `json:"auth_user_id,omitempty"`
	Permissions []string   `json:"permissions"`
	CompanyID   *uuid.UUID `json:"company_id"`
	CompanyName string     `json:"company_name,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type SyncUserRequest struct {
	User *identity.User `json:"user"`
}

type SyncUserResponse struct {
	User *LocalUser `json:"user"`
}

// SyncUser pushes the provider user to the API with an explicit access token
// and returns the local record. A 401 comes back as an *HTTPError.
func (c *Client) SyncUser(ctx context.Context, token string, user *identity.User) (*LocalUser, error) {
	if user == nil {
		return nil, fmt.Errorf("sync user: no identity user")
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("sync user: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, SyncUserPath, token, SyncUserRequest{User: user})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out SyncUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode sync response: %w", err)
	}
	if out.User == nil {
		return nil, fmt.Errorf("sync user: empty response")
	}
	if err := validator.Validate(out.User); err != nil {
		return nil, fmt.Errorf("sync user: %w", err)
	}
	return out.User, nil
}
