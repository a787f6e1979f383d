package account

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"

	apperrors "github.com/yanqian/assessment-portal/pkg/errors"
)

// Flow names reported to the Recorder.
const (
	FlowLogin        = "login"
	FlowSignup       = "signup"
	FlowLogout       = "logout"
	FlowResetRequest = "password_reset"
	FlowResetConfirm = "password_reset_confirm"
)

// Recorder observes flow outcomes ("success", "failure" or "error").
type Recorder interface {
	AuthAttempt(flow, outcome string)
}

// Service runs the account flows for one browser session.
type Service struct {
	api      API
	tokens   TokenStore
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds the flows over a session's API client and token storage.
func NewService(api API, tokens TokenStore, recorder Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:      api,
		tokens:   tokens,
		recorder: recorder,
		logger:   logger.With("component", "account.service"),
		now:      time.Now,
	}
}

// Login posts the credentials. A token response is stored; a session-only
// response just redirects home.
func (s *Service) Login(ctx context.Context, req LoginRequest) (Outcome, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		return Outcome{}, apperrors.Wrap(apperrors.CodeInvalidInput, validationMessage(err), err)
	}
	resp, err := s.api.Login(ctx, req)
	if err != nil {
		return Outcome{}, s.transportError(FlowLogin, err)
	}
	switch {
	case resp.Has("access"):
		if err := s.tokens.Set(ctx, KeyAccessToken, resp.String("access")); err != nil {
			return Outcome{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to store access token", err)
		}
		if err := s.tokens.Set(ctx, KeyRefreshToken, resp.String("refresh")); err != nil {
			return Outcome{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to store refresh token", err)
		}
		s.record(FlowLogin, "success")
		return Outcome{Alert: MsgLoginSuccess, Redirect: HomePath}, nil
	case resp.Has("message"):
		s.record(FlowLogin, "success")
		return Outcome{Redirect: HomePath}, nil
	default:
		s.record(FlowLogin, "failure")
		return Outcome{Alert: MsgInvalidCredentials}, nil
	}
}

// Signup creates the account and sends the user to the login page.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (Outcome, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validate.Struct(req); err != nil {
		return Outcome{}, apperrors.Wrap(apperrors.CodeInvalidInput, validationMessage(err), err)
	}
	resp, err := s.api.Signup(ctx, req)
	if err != nil {
		return Outcome{}, s.transportError(FlowSignup, err)
	}
	if resp.Has("message") {
		s.record(FlowSignup, "success")
		return Outcome{Alert: MsgSignupSuccess, Redirect: LoginPath}, nil
	}
	s.logger.Warn("signup rejected", "status", resp.Status, "body", resp.Body)
	s.record(FlowSignup, "failure")
	return Outcome{Alert: MsgSignupFailed}, nil
}

// Logout revokes the refresh token and clears storage. Without a refresh
// token storage is cleared locally. A rejected revocation leaves the tokens
// in place.
func (s *Service) Logout(ctx context.Context) (Outcome, error) {
	refresh, ok, err := s.tokens.Get(ctx, KeyRefreshToken)
	if err != nil {
		return Outcome{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to read refresh token", err)
	}
	if !ok || refresh == "" {
		s.record(FlowLogout, "success")
		return Outcome{}, s.clearTokens(ctx)
	}

	bearer, refresh := s.bearer(ctx, refresh)
	resp, err := s.api.Logout(ctx, bearer, LogoutRequest{RefreshToken: refresh})
	if err != nil {
		return Outcome{}, s.transportError(FlowLogout, err)
	}
	if !resp.OK() {
		s.logger.Error("Logout failed", "status", resp.Status)
		s.record(FlowLogout, "failure")
		return Outcome{}, nil
	}
	s.record(FlowLogout, "success")
	return Outcome{}, s.clearTokens(ctx)
}

// RequestPasswordReset sends the user on to the confirm page for the returned uid.
func (s *Service) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) (Outcome, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		return Outcome{}, apperrors.Wrap(apperrors.CodeInvalidInput, validationMessage(err), err)
	}
	resp, err := s.api.RequestPasswordReset(ctx, req)
	if err != nil {
		return Outcome{}, s.transportError(FlowResetRequest, err)
	}
	if resp.OK() {
		uid := strings.TrimSpace(resp.String("uid"))
		if uid == "" {
			s.logger.Warn("password reset accepted without uid", "body", resp.Body)
			s.record(FlowResetRequest, "failure")
			return Outcome{Alert: MsgEmailNotFound}, nil
		}
		s.record(FlowResetRequest, "success")
		return Outcome{Redirect: ResetConfirmPathPrefix + uid + "/"}, nil
	}
	s.record(FlowResetRequest, "failure")
	if detail := resp.String("detail"); detail != "" {
		return Outcome{Alert: detail}, nil
	}
	return Outcome{Alert: MsgEmailNotFound}, nil
}

// ConfirmPasswordReset sets the new password.
func (s *Service) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) (Outcome, error) {
	if err := validate.Struct(req); err != nil {
		return Outcome{}, apperrors.Wrap(apperrors.CodeInvalidInput, validationMessage(err), err)
	}
	resp, err := s.api.ConfirmPasswordReset(ctx, req)
	if err != nil {
		return Outcome{}, s.transportError(FlowResetConfirm, err)
	}
	if resp.OK() {
		s.record(FlowResetConfirm, "success")
		return Outcome{Alert: MsgResetSuccess, Redirect: LoginPath}, nil
	}
	s.logger.Warn("password reset rejected", "status", resp.Status, "body", resp.Body)
	s.record(FlowResetConfirm, "failure")
	return Outcome{Alert: MsgResetFailed}, nil
}

// Navbar reports which auth buttons the session should see.
func (s *Service) Navbar(ctx context.Context) (NavbarState, error) {
	access, _, err := s.tokens.Get(ctx, KeyAccessToken)
	if err != nil {
		return NavbarState{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to read access token", err)
	}
	return NavbarFor(access, s.now()), nil
}

// bearer returns a usable access token, refreshing an expired one, plus the
// refresh token to revoke. The stale token is sent when the refresh fails.
func (s *Service) bearer(ctx context.Context, refresh string) (string, string) {
	access, _, err := s.tokens.Get(ctx, KeyAccessToken)
	if err != nil {
		s.logger.Warn("access token read failed", "error", err)
	}
	current := &oauth2.Token{AccessToken: access, TokenType: "Bearer", RefreshToken: refresh}
	if exp, ok := TokenExpiry(access); ok {
		current.Expiry = exp
	}
	if current.Valid() {
		return access, refresh
	}
	src := s.api.TokenSource(ctx, refresh)
	if src == nil {
		return access, refresh
	}
	tok, err := oauth2.ReuseTokenSource(current, src).Token()
	if err != nil {
		s.logger.Warn("access token refresh failed", "error", err)
		return access, refresh
	}
	if tok.AccessToken != access {
		if err := s.tokens.Set(ctx, KeyAccessToken, tok.AccessToken); err != nil {
			s.logger.Warn("refreshed token not stored", "error", err)
		}
	}
	if tok.RefreshToken != "" && tok.RefreshToken != refresh {
		refresh = tok.RefreshToken
		if err := s.tokens.Set(ctx, KeyRefreshToken, refresh); err != nil {
			s.logger.Warn("rotated refresh token not stored", "error", err)
		}
	}
	return tok.AccessToken, refresh
}

func (s *Service) clearTokens(ctx context.Context) error {
	if err := s.tokens.Remove(ctx, KeyAccessToken, KeyRefreshToken); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to clear tokens", err)
	}
	return nil
}

func (s *Service) transportError(flow string, err error) error {
	s.logger.Error("account request failed", "flow", flow, "error", err)
	s.record(flow, "error")
	if apperrors.CodeOf(err) != "" {
		return err
	}
	return apperrors.Wrap(apperrors.CodeBackendError, flow+" request failed", err)
}

func (s *Service) record(flow, outcome string) {
	if s.recorder != nil {
		s.recorder.AuthAttempt(flow, outcome)
	}
}
