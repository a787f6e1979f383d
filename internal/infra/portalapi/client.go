// Package portalapi talks to the backend REST endpoints on behalf of one
// browser session. Each Client owns a cookie jar that plays the role of the
// browser's cookie store.
package portalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/yanqian/assessment-portal/pkg/cookie"
	apperrors "github.com/yanqian/assessment-portal/pkg/errors"
)

const (
	// CSRFCookie is the backend's CSRF cookie name.
	CSRFCookie = "csrftoken"
	// CSRFHeader carries the token on state-changing requests.
	CSRFHeader = "X-CSRFToken"

	maxBodyBytes = 1 << 20
)

// Endpoints are the backend paths, relative to the base URL.
type Endpoints struct {
	Submit               string
	Locations            string
	Login                string
	Signup               string
	Logout               string
	PasswordReset        string
	PasswordResetConfirm string
	TokenRefresh         string
}

// DefaultEndpoints returns the backend's standard routes. The backend has no
// standard refresh route, so TokenRefresh is left empty.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Submit:               "/api/assessment/submit/",
		Locations:            "/api/location-autocomplete/",
		Login:                "/auth/api/login/",
		Signup:               "/auth/api/signup/",
		Logout:               "/auth/api/logout/",
		PasswordReset:        "/auth/api/password-reset/",
		PasswordResetConfirm: "/auth/api/reset-password-confirm/",
		}
}

// Config configures a Client.
type Config struct {
	BaseURL string
	// Timeout bounds each request; zero means no timeout.
	Timeout time.Duration
	// CSRFPrimePath is fetched once when the jar has no CSRF cookie before a
	// state-changing call. Empty disables priming.
	CSRFPrimePath string
	// TokenRefreshPath exchanges a refresh token for an access token. Empty
	// disables refresh.
	TokenRefreshPath string
	Endpoints        Endpoints
	Transport        http.RoundTripper
}

// Client is one session's backend client.
type Client struct {
	base      *url.URL
	http      *http.Client
	endpoints Endpoints
	primePath string
	logger    *slog.Logger
}

// New builds a Client with an empty cookie jar.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q", cfg.BaseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	endpoints := cfg.Endpoints
	if endpoints == (Endpoints{}) {
		endpoints = DefaultEndpoints()
	}
	if cfg.TokenRefreshPath != "" {
		endpoints.TokenRefresh = cfg.TokenRefreshPath
	}
	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Jar:       jar,
			Transport: cfg.Transport,
		},
		endpoints: endpoints,
		primePath: cfg.CSRFPrimePath,
		logger:    logger.With("component", "portalapi"),
	}, nil
}

// CSRFToken returns the token from the jar, or "" when absent.
func (c *Client) CSRFToken() string {
	token, _ := cookie.Get(cookie.Join(c.http.Jar.Cookies(c.base)), CSRFCookie)
	return token
}

// SetCookies seeds the jar, e.g. with cookies the browser already holds for
// the backend.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.http.Jar.SetCookies(c.base, cookies)
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	bearer string
	csrf   bool
}

type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (c *Client) do(ctx context.Context, r request) (response, error) {
	if r.csrf {
		c.primeCSRF(ctx)
	}
	endpoint := c.base.JoinPath(r.path)
	if len(r.query) > 0 {
		endpoint.RawQuery = r.query.Encode()
	}
	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "encode request body", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, endpoint.String(), body)
	if err != nil {
		return response{}, apperrors.Wrap(apperrors.CodeBackendError, "build backend request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.csrf {
		if token := c.CSRFToken(); token != "" {
			req.Header.Set(CSRFHeader, token)
		}
	}
	if r.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+r.bearer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, apperrors.Wrap(apperrors.CodeBackendError, fmt.Sprintf("%s %s failed", r.method, r.path), err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return response{}, apperrors.Wrap(apperrors.CodeBackendError, "read backend response", err)
	}
	c.logger.Debug("backend call", "method", r.method, "path", r.path, "status", resp.StatusCode, "latency", time.Since(start))
	return response{status: resp.StatusCode, body: payload}, nil
}

func (c *Client) primeCSRF(ctx context.Context) {
	if c.primePath == "" || c.CSRFToken() != "" {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.JoinPath(c.primePath).String(), nil)
	if err != nil {
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("csrf priming failed", "error", err)
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()
}

func statusError(path string, r response) error {
	snippet := string(r.body)
	if len(snippet) > 256 {
		snippet = snippet[:256]
	}
	return apperrors.Wrap(apperrors.CodeBackendStatus, fmt.Sprintf("%s returned status %d: %s", path, r.status, snippet), nil)
}
