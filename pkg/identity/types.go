package identity

import (
	"time"

	"go-inventory-checklist/pkg/validator"
)

// AuthEvent is the kind of an auth-state change.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// User is the identity provider's user record.
type User struct {
	ID           string                 `json:"id" validate:"required"`
	Aud          string                 `json:"aud,omitempty"`
	Role         string                 `json:"role,omitempty"`
	Email        string                 `json:"email" validate:"omitempty,email"`
	Phone        string                 `json:"phone,omitempty"`
	AppMetadata  map[string]interface{} `json:"app_metadata,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	LastSignInAt *time.Time             `json:"last_sign_in_at,omitempty"`
}

// Validate checks the payload before it crosses into the application API.
func (u *User) Validate() error {
	return validator.Validate(u)
}

// DisplayName returns user_metadata.name when the provider has one.
func (u *User) DisplayName() string {
	if name, ok := u.UserMetadata["name"].(string); ok {
		return name
	}
	return ""
}

// Session is what the provider hands out on sign-in and refresh.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// expiresSoon reports whether the access token is within margin of expiring.
func (s *Session) expiresSoon(now time.Time, margin time.Duration) bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return now.Add(margin).Unix() >= s.ExpiresAt
}

func (s *Session) fillExpiry(now time.Time) {
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
	}
}
