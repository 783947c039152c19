package identity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AuthError is an error answered by the identity service.
type AuthError struct {
	Status  int
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("identity: %d: %s", e.Status, e.Message)
}

// Is matches sentinel AuthErrors by code.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

const (
	CodeInvalidCredentials    = "invalid_credentials"
	CodeRefreshTokenNotFound  = "refresh_token_not_found"
	CodeRefreshTokenUsed      = "refresh_token_already_used"
	CodeSessionNotFound       = "session_not_found"
	CodeUserAlreadyRegistered = "user_already_exists"
)

var (
	ErrInvalidCredentials  = &AuthError{Code: CodeInvalidCredentials}
	ErrInvalidRefreshToken = &AuthError{Code: CodeRefreshTokenNotFound}
)

// errorBody covers both error shapes GoTrue has shipped.
type errorBody struct {
	Code             interface{} `json:"code"`
	ErrorCode        string      `json:"error_code"`
	Msg              string      `json:"msg"`
	Message          string      `json:"message"`
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
}

func parseError(status int, body []byte) *AuthError {
	ae := &AuthError{Status: status, Message: strings.TrimSpace(string(body))}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ae
	}
	switch {
	case eb.Msg != "":
		ae.Message = eb.Msg
	case eb.Message != "":
		ae.Message = eb.Message
	case eb.ErrorDescription != "":
		ae.Message = eb.ErrorDescription
	}
	ae.Code = eb.ErrorCode
	if ae.Code == "" {
		ae.Code = legacyCode(eb.Error, ae.Message)
	}
	if ae.Code == CodeRefreshTokenUsed {
		ae.Code = CodeRefreshTokenNotFound
	}
	return ae
}

func legacyCode(errField, msg string) string {
	lower := strings.ToLower(msg)
	switch {
	case errField == "invalid_grant" && strings.Contains(lower, "refresh token"):
		return CodeRefreshTokenNotFound
	case errField == "invalid_grant" && strings.Contains(lower, "invalid login credentials"):
		return CodeInvalidCredentials
	}
	return errField
}
