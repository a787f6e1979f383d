package portalapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/assessment-portal/internal/domain/account"
	"github.com/yanqian/assessment-portal/internal/domain/assessment"
	apperrors "github.com/yanqian/assessment-portal/pkg/errors"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   map[string]any
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	handlers map[string]http.HandlerFunc
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{handlers: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Header: r.Header.Clone()}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.Body)
		}
		fb.mu.Lock()
		fb.requests = append(fb.requests, rec)
		h, ok := fb.handlers[r.URL.Path]
		fb.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) handle(path string, h http.HandlerFunc) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.handlers[path] = h
}

func (fb *fakeBackend) last() recordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.requests[len(fb.requests)-1]
}

func writeJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func newTestClient(t *testing.T, baseURL, primePath string) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: baseURL, CSRFPrimePath: primePath}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"}, nil)
	require.Error(t, err)
	_, err = New(Config{BaseURL: ""}, nil)
	require.Error(t, err)
}

func TestSubmitAssessment_SendsCSRFAndJSON(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle("/prime/", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: CSRFCookie, Value: "tok%3Dabc", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	fb.handle("/api/assessment/submit/", writeJSON(http.StatusOK,
		`{"readiness_score":72,"risk_level":"Medium","strengths":["A"],"weaknesses":[]}`))
	c := newTestClient(t, srv.URL, "/prime/")

	result, err := c.SubmitAssessment(context.Background(), assessment.Payload{
		"full_name": "Sam",
		"documents": []string{"passport", "medicare"},
	})
	require.NoError(t, err)
	require.Equal(t, 72.0, *result.ReadinessScore)
	require.Equal(t, "Medium", *result.RiskLevel)

	req := fb.last()
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "tok=abc", req.Header.Get(CSRFHeader))
	require.Equal(t, "application/json", req.Header.Get("Content-Type"))
	require.Equal(t, "Sam", req.Body["full_name"])
	require.Equal(t, []any{"passport", "medicare"}, req.Body["documents"])
	require.Equal(t, "tok=abc", c.CSRFToken())
}

func TestSubmitAssessment_OmitsCSRFHeaderWithoutCookie(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle("/api/assessment/submit/", writeJSON(http.StatusOK, `{}`))
	c := newTestClient(t, srv.URL, "")

	result, err := c.SubmitAssessment(context.Background(), assessment.Payload{})
	require.NoError(t, err)
	require.Nil(t, result.ReadinessScore)
	_, present := fb.last().Header[http.CanonicalHeaderKey(CSRFHeader)]
	require.False(t, present)
}

func TestSubmitAssessment_Non2xxIsError(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle("/api/assessment/submit/", writeJSON(http.StatusInternalServerError, `{"detail":"boom"}`))
	c := newTestClient(t, srv.URL, "")

	_, err := c.SubmitAssessment(context.Background(), assessment.Payload{"a": "b"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeBackendStatus))
	require.Contains(t, err.Error(), "500")
}

func TestSubmitAssessment_MalformedBody(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle("/api/assessment/submit/", writeJSON(http.StatusOK, `<html>`))
	c := newTestClient(t, srv.URL, "")

	_, err := c.SubmitAssessment(context.Background(), assessment.Payload{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeDecodeError))
}

func TestSubmitAssessment_TransportError(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := newTestClient(t, srv.URL, "")
	srv.Close()

	_, err := c.SubmitAssessment(context.Background(), assessment.Payload{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeBackendError))
}

func TestLocations(t *testing.T) {
	fb, srv := newFakeBackend(t)
	c := newTestClient(t, srv.URL, "")

	fb.handle("/api/location-autocomplete/", writeJSON(http.StatusOK,
		`[{"label":"Sydney, NSW - 2000","postcode":"2000","city":"Sydney","lat":-33.8688,"lon":151.2093}]`))
	got, err := c.Locations(context.Background(), "Syd ney&x")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "-33.8688", string(got[0].Lat))
	require.Equal(t, "q=Syd+ney%26x", fb.last().Query)

	fb.handle("/api/location-autocomplete/", writeJSON(http.StatusOK, `{"results":[]}`))
	got, err = c.Locations(context.Background(), "Syd")
	require.NoError(t, err)
	require.Nil(t, got)

	fb.handle("/api/location-autocomplete/", writeJSON(http.StatusOK, `[]`))
	got, err = c.Locations(context.Background(), "Syd")
	require.NoError(t, err)
	require.Empty(t, got)

	fb.handle("/api/location-autocomplete/", writeJSON(http.StatusOK, `not json`))
	_, err = c.Locations(context.Background(), "Syd")
	require.True(t, apperrors.IsCode(err, apperrors.CodeDecodeError))

	fb.handle("/api/location-autocomplete/", writeJSON(http.StatusBadGateway, `[]`))
	_, err = c.Locations(context.Background(), "Syd")
	require.True(t, apperrors.IsCode(err, apperrors.CodeBackendStatus))
}

func TestAccountCalls(t *testing.T) {
	fb, srv := newFakeBackend(t)
	c := newTestClient(t, srv.URL, "")

	fb.handle("/auth/api/login/", writeJSON(http.StatusOK, `{"access":"a","refresh":"r"}`))
	resp, err := c.Login(context.Background(), account.LoginRequest{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, "a", resp.String("access"))
	require.Equal(t, "a@b.co", fb.last().Body["email"])

	fb.handle("/auth/api/signup/", writeJSON(http.StatusBadRequest, `["nope"]`))
	resp, err = c.Signup(context.Background(), account.SignupRequest{FullName: "A", Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.Status)
	require.Nil(t, resp.Body)
	require.Equal(t, "A", fb.last().Body["full_name"])

	fb.handle("/auth/api/password-reset/", writeJSON(http.StatusOK, `<html>`))
	_, err = c.RequestPasswordReset(context.Background(), account.PasswordResetRequest{Email: "a@b.co"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeDecodeError))

	fb.handle("/auth/api/reset-password-confirm/", writeJSON(http.StatusOK, `{"detail":"ok"}`))
	resp, err = c.ConfirmPasswordReset(context.Background(), account.PasswordResetConfirmRequest{UID: "MTI", Password: "pw"})
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.Equal(t, "MTI", fb.last().Body["uid"])

	fb.handle("/auth/api/logout/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusResetContent)
	})
	resp, err = c.Logout(context.Background(), "bearer-1", account.LogoutRequest{RefreshToken: "r"})
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.Equal(t, "Bearer bearer-1", fb.last().Header.Get("Authorization"))
	require.Equal(t, "r", fb.last().Body["refresh_token"])
}

func TestTokenSource_DisabledWithoutRefreshPath(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := newTestClient(t, srv.URL, "")
	require.Nil(t, c.TokenSource(context.Background(), "r1"))
}

func TestTokenSource_Refresh(t *testing.T) {
	fb, srv := newFakeBackend(t)
	c, err := New(Config{BaseURL: srv.URL, TokenRefreshPath: "/auth/api/token/refresh/"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	fb.handle("/auth/api/token/refresh/", writeJSON(http.StatusOK, `{"access":"`+access+`"}`))
	tok, err := c.TokenSource(context.Background(), "r1").Token()
	require.NoError(t, err)
	require.Equal(t, access, tok.AccessToken)
	require.Equal(t, "r1", tok.RefreshToken)
	require.True(t, tok.Expiry.Equal(exp))
	require.Equal(t, "r1", fb.last().Body["refresh"])

	fb.handle("/auth/api/token/refresh/", writeJSON(http.StatusUnauthorized, `{"detail":"expired"}`))
	_, err = c.TokenSource(context.Background(), "r1").Token()
	require.True(t, apperrors.IsCode(err, apperrors.CodeBackendStatus))

	_, err = c.TokenSource(context.Background(), "").Token()
	require.Error(t, err)
}
