package portalapi

import (
	"context"
	"encoding/json"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/yanqian/assessment-portal/internal/domain/account"
	apperrors "github.com/yanqian/assessment-portal/pkg/errors"
)

// Login implements account.API.
func (c *Client) Login(ctx context.Context, req account.LoginRequest) (account.Response, error) {
	return c.accountCall(ctx, c.endpoints.Login, req)
}

// Signup implements account.API.
func (c *Client) Signup(ctx context.Context, req account.SignupRequest) (account.Response, error) {
	return c.accountCall(ctx, c.endpoints.Signup, req)
}

// Logout implements account.API. The body is not inspected.
func (c *Client) Logout(ctx context.Context, bearer string, req account.LogoutRequest) (account.Response, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   c.endpoints.Logout,
		body:   req,
		bearer: bearer,
		csrf:   true,
	})
	if err != nil {
		return account.Response{}, err
	}
	return account.Response{Status: resp.status, Body: objectBody(resp.body)}, nil
}

// RequestPasswordReset implements account.API.
func (c *Client) RequestPasswordReset(ctx context.Context, req account.PasswordResetRequest) (account.Response, error) {
	return c.accountCall(ctx, c.endpoints.PasswordReset, req)
}

// ConfirmPasswordReset implements account.API.
func (c *Client) ConfirmPasswordReset(ctx context.Context, req account.PasswordResetConfirmRequest) (account.Response, error) {
	return c.accountCall(ctx, c.endpoints.PasswordResetConfirm, req)
}

// TokenSource implements account.API. It returns nil when no refresh route is
// configured.
func (c *Client) TokenSource(ctx context.Context, refreshToken string) oauth2.TokenSource {
	if c.endpoints.TokenRefresh == "" {
		return nil
	}
	return &refreshTokenSource{ctx: ctx, client: c, refresh: refreshToken}
}

// accountCall posts a JSON form. The response must be JSON; a body that is
// not an object is returned with a nil Body.
func (c *Client) accountCall(ctx context.Context, path string, body any) (account.Response, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   path,
		body:   body,
		csrf:   true,
	})
	if err != nil {
		return account.Response{}, err
	}
	if !json.Valid(resp.body) {
		return account.Response{}, apperrors.Wrap(apperrors.CodeDecodeError, path+" returned a non-JSON body", nil)
	}
	return account.Response{Status: resp.status, Body: objectBody(resp.body)}, nil
}

func objectBody(raw []byte) map[string]any {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	return body
}

// refreshTokenSource exchanges a refresh token for a new access token.
type refreshTokenSource struct {
	ctx     context.Context
	client  *Client
	refresh string
}

func (s *refreshTokenSource) Token() (*oauth2.Token, error) {
	if s.refresh == "" {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "refresh token missing", nil)
	}
	resp, err := s.client.do(s.ctx, request{
		method: http.MethodPost,
		path:   s.client.endpoints.TokenRefresh,
		body:   map[string]string{"refresh": s.refresh},
		csrf:   true,
	})
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, statusError(s.client.endpoints.TokenRefresh, resp)
	}
	var payload struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(resp.body, &payload); err != nil || payload.Access == "" {
		return nil, apperrors.Wrap(apperrors.CodeDecodeError, "decode refreshed token", err)
	}
	tok := &oauth2.Token{
		AccessToken:  payload.Access,
		TokenType:    "Bearer",
		RefreshToken: s.refresh,
	}
	if payload.Refresh != "" {
		tok.RefreshToken = payload.Refresh
	}
	if exp, ok := account.TokenExpiry(payload.Access); ok {
		tok.Expiry = exp
	}
	return tok, nil
}

var _ account.API = (*Client)(nil)
