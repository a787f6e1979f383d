// Package account drives the login, signup, logout and password reset flows
// and derives the navbar state from the stored tokens.
package account

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"golang.org/x/oauth2"
)

// Storage keys for the bearer tokens.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// User-facing messages.
const (
	MsgLoginSuccess       = "Login successful!"
	MsgInvalidCredentials = "Invalid credentials"
	MsgSignupSuccess      = "Account created successfully!"
	MsgSignupFailed       = "Error creating account"
	MsgEmailNotFound      = "Email not found"
	MsgResetSuccess       = "Password reset successful!"
	MsgResetFailed        = "Error resetting password"
)

// Redirect targets.
const (
	HomePath               = "/"
	LoginPath              = "/auth/login/"
	ResetConfirmPathPrefix = "/auth/reset-password-confirm/"
)

// LoginRequest is the login form.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is the signup form.
type SignupRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PasswordResetRequest starts a reset for an email address.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest sets the new password for a reset uid.
type PasswordResetConfirmRequest struct {
	UID      string `json:"uid" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LogoutRequest revokes the refresh token.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Response is a backend answer: status plus the decoded JSON object body. Body
// is nil when the payload was not an object.
type Response struct {
	Status int
	Body   map[string]any
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// String returns a body field as text. Numbers are formatted, other kinds
// yield "".
func (r Response) String(key string) string {
	switch v := r.Body[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Has reports whether the body carries a truthy value under key.
func (r Response) Has(key string) bool {
	switch v := r.Body[key].(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return true
	}
}

// API is the backend's account surface.
type API interface {
	Login(ctx context.Context, req LoginRequest) (Response, error)
	Signup(ctx context.Context, req SignupRequest) (Response, error)
	Logout(ctx context.Context, bearer string, req LogoutRequest) (Response, error)
	RequestPasswordReset(ctx context.Context, req PasswordResetRequest) (Response, error)
	ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) (Response, error)
	// TokenSource mints access tokens from a refresh token. A nil source means
	// the backend cannot refresh.
	TokenSource(ctx context.Context, refreshToken string) oauth2.TokenSource
}

// TokenStore is the per-session key/value token storage.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// StorageEvent reports a change of one stored key. Values are never carried.
type StorageEvent struct {
	Key     string `json:"key"`
	Removed bool   `json:"removed,omitempty"`
}

// Watcher streams storage events until ctx is done.
type Watcher interface {
	Watch(ctx context.Context) (<-chan StorageEvent, error)
}

// Outcome tells the page what to show next.
type Outcome struct {
	Alert    string `json:"alert,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

var validate = validator.New()

// validationMessage renders the first failed rule.
func validationMessage(err error) string {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", fe.Field())
		case "email":
			return "invalid email address"
		default:
			return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
		}
	}
	return "invalid request"
}
