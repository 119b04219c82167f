// ABOUTME: Auth request/response models for the BFF session routes
// ABOUTME: Defines login, register and refresh contracts with the backend

package models

import "encoding/json"

// LoginRequest is the browser's login payload. Fields are untyped so that
// non-string values surface as validation errors rather than decode errors.
type LoginRequest struct {
	Email    any `json:"email"`
	Password any `json:"password"`
}

// RegisterRequest is the browser's registration payload.
type RegisterRequest struct {
	Name     any `json:"name"`
	Email    any `json:"email"`
	Password any `json:"password"`
}

// Credentials is the sanitized login payload forwarded to the backend.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sanitized registration payload forwarded to the backend.
type Registration struct {
	Name     *string `json:"name,omitempty"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
}

// LoginTokens is the backend's successful login answer.
// User is passed through to the browser untouched.
type LoginTokens struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`
}

// RefreshRequest is the only payload that ever carries a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshedToken is the backend's successful refresh answer.
type RefreshedToken struct {
	AccessToken string `json:"access_token"`
}

// RegisteredUser is the minimal projection returned after registration.
type RegisteredUser struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// LoginResponse is returned to the browser after a successful login.
type LoginResponse struct {
	Success bool            `json:"success"`
	User    json.RawMessage `json:"user"`
}
