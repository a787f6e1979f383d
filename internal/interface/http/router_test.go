package http

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/assessment-portal/internal/domain/account"
	"github.com/yanqian/assessment-portal/internal/domain/assessment"
	"github.com/yanqian/assessment-portal/internal/infra/config"
	"github.com/yanqian/assessment-portal/internal/infra/docstore"
	"github.com/yanqian/assessment-portal/internal/infra/formdoc"
	"github.com/yanqian/assessment-portal/internal/infra/sessionstore"
	"github.com/yanqian/assessment-portal/internal/infra/tokenstore"
	"github.com/yanqian/assessment-portal/pkg/metrics"
)

type harness struct {
	t       *testing.T
	portal  *httptest.Server
	client  *http.Client
	tokens  *tokenstore.MemoryStore
	metrics *metrics.Portal

	mu       sync.Mutex
	queries  []string
	payloads []map[string]any
}

func newHarness(t *testing.T, routes map[string]http.HandlerFunc) *harness {
	t.Helper()
	h := &harness{t: t, tokens: tokenstore.NewMemoryStore(), metrics: metrics.NewPortal()}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/location-autocomplete/", func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.queries = append(h.queries, r.URL.Query().Get("q"))
		h.mu.Unlock()
		if fn, ok := routes["/api/location-autocomplete/"]; ok {
			fn(w, r)
			return
		}
		writeBackendJSON(w, http.StatusOK, `[{"label":"Newtown NSW 2042","postcode":"2042","city":"Newtown","lat":-33.89,"lon":151.18}]`)
	})
	mux.HandleFunc("/api/assessment/submit/", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		h.mu.Lock()
		h.payloads = append(h.payloads, payload)
		h.mu.Unlock()
		if fn, ok := routes["/api/assessment/submit/"]; ok {
			fn(w, r)
			return
		}
		writeBackendJSON(w, http.StatusOK, `{"readiness_score":72,"risk_level":"Medium","strengths":["Stable income"],"weaknesses":[]}`)
	})
	for path, fn := range routes {
		if strings.HasPrefix(path, "/auth/") {
			mux.HandleFunc(path, fn)
		}
	}
	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)

	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:        ":0",
			MaxUploadBytes: 1 << 20,
		},
		Backend:      config.BackendConfig{BaseURL: backend.URL},
		Session:      config.SessionConfig{CookieName: "portal_session", TTL: time.Hour, SweepInterval: time.Minute},
		Autocomplete: config.AutocompleteConfig{QuietPeriod: 300 * time.Millisecond},
	}
	form, err := formdoc.DefaultTemplate()
	require.NoError(t, err)
	logger := newTestLogger()
	sessions := NewSessions(cfg, form, sessionstore.NewMemoryStore(), h.tokens, docstore.NewMemoryStorage(), h.metrics, logger)
	server := NewRouter(cfg, NewHandler(cfg, sessions, logger))
	h.portal = httptest.NewServer(server.Handler)
	t.Cleanup(h.portal.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	h.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return h
}

func writeBackendJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (h *harness) do(req *http.Request) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp, string(body)
}

func (h *harness) get(path string) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.portal.URL+path, nil)
	require.NoError(h.t, err)
	return h.do(req)
}

func (h *harness) postForm(path string, values url.Values) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.portal.URL+path, strings.NewReader(values.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

type upload struct {
	field, filename, content string
}

func (h *harness) postMultipart(path string, values url.Values, files ...upload) (*http.Response, string) {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, vals := range values {
		for _, v := range vals {
			require.NoError(h.t, mw.WriteField(name, v))
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(h.t, err)
		_, err = io.WriteString(part, f.content)
		require.NoError(h.t, err)
	}
	require.NoError(h.t, mw.Close())
	req, err := http.NewRequest(http.MethodPost, h.portal.URL+path, &buf)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.do(req)
}

func (h *harness) sessionID() string {
	h.t.Helper()
	u, err := url.Parse(h.portal.URL)
	require.NoError(h.t, err)
	for _, ck := range h.client.Jar.Cookies(u) {
		if ck.Name == "portal_session" {
			return ck.Value
		}
	}
	h.t.Fatal("no session cookie")
	return ""
}

func (h *harness) lastPayload() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	require.NotEmpty(h.t, h.payloads)
	return h.payloads[len(h.payloads)-1]
}

func parsePage(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func activeSteps(doc *goquery.Document) []int {
	var active []int
	doc.Find(".form-step").Each(func(i int, s *goquery.Selection) {
		if s.HasClass("form-step-active") {
			active = append(active, i)
		}
	})
	return active
}

var stepValues = []url.Values{
	{"full_name": {"Jane Citizen"}, "monthly_rent_budget": {"1200"}},
	{"employment_status": {"full_time"}, "rental_history": {"rented_locally"}},
	{"individual_income": {"5000"}, "individual_income_period": {"monthly"}},
	{"documents": {"passport"}, "proof_of_income": {"recent_payslip"}},
}

// completeSteps walks the wizard to its last step.
func (h *harness) completeSteps() {
	h.t.Helper()
	for i, values := range stepValues {
		var resp *http.Response
		if i == 3 {
			resp, _ = h.postMultipart("/assessment/next", values, upload{"document_files", "payslip.pdf", "%PDF-1.4"})
		} else {
			resp, _ = h.postForm("/assessment/next", values)
		}
		require.Equal(h.t, http.StatusOK, resp.StatusCode, "step %d", i)
	}
}

func TestAssessment_InitialRender(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.get("/assessment/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, h.sessionID())

	page := parsePage(t, body)
	require.Equal(t, []int{0}, activeSteps(page))
	require.Equal(t, "Step 1 / 5", page.Find(".progress-step-label").Text())
	require.Equal(t, "20%", page.Find(".progress-percent-label").Text())
	require.Equal(t, "width: 20%", page.Find("#progress").AttrOr("style", ""))
	require.Equal(t, "display:inline-block", page.Find(".nav-btn-login").AttrOr("style", ""))
}

func TestAssessment_RootRedirects(t *testing.T) {
	h := newHarness(t, nil)
	resp, _ := h.get("/")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, AssessmentPath, resp.Header.Get("Location"))
}

func TestAssessment_NextBlockedByInvalidField(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.postForm("/assessment/next", url.Values{"full_name": {""}, "monthly_rent_budget": {"1200"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	page := parsePage(t, body)
	require.Equal(t, []int{0}, activeSteps(page))
	require.Equal(t, "Please fill out this field.", page.Find(`[data-error-for="full_name"]`).Text())
	require.Equal(t, "1200", page.Find("#monthly_rent_budget").AttrOr("value", ""))
	require.Equal(t, 1.0, testutil.ToFloat64(h.metrics.StepRejections))
}

func TestAssessment_NextAdvancesAndKeepsDraft(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.postForm("/assessment/next", stepValues[0])
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := parsePage(t, body)
	require.Equal(t, []int{1}, activeSteps(page))
	require.Equal(t, "Step 2 / 5", page.Find(".progress-step-label").Text())

	_, body = h.get("/assessment/")
	page = parsePage(t, body)
	require.Equal(t, []int{1}, activeSteps(page))
	require.Equal(t, "Jane Citizen", page.Find("#full_name").AttrOr("value", ""))
	require.Empty(t, page.Find("[data-error-for]").Nodes)
}

func TestAssessment_UploadSurvivesRejectedStep(t *testing.T) {
	h := newHarness(t, nil)
	for _, values := range stepValues[:3] {
		resp, _ := h.postForm("/assessment/next", values)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, _ := h.postMultipart("/assessment/next",
		url.Values{"documents": {"passport"}},
		upload{"document_files", "lease.pdf", "%PDF-1.7"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = h.postMultipart("/assessment/next", stepValues[3], upload{"document_files", "", ""})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.postForm("/assessment/submit", url.Values{"moving_with_adults": {"1"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	docs, ok := h.lastPayload()[assessment.FieldDocuments].([]any)
	require.True(t, ok)
	require.Len(t, docs, 2)
	require.Equal(t, "passport", docs[0])
	require.True(t, strings.HasSuffix(docs[1].(string), "-lease.pdf"))
}

func TestAssessment_LocationsDebounced(t *testing.T) {
	h := newHarness(t, nil)
	h.get("/assessment/")

	type result struct {
		status int
		body   string
	}
	first := make(chan result, 1)
	go func() {
		resp, body := h.get("/assessment/locations?q=ne")
		first <- result{resp.StatusCode, body}
	}()
	time.Sleep(50 * time.Millisecond)

	resp, body := h.get("/assessment/locations?q=" + url.QueryEscape(" new "))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Newtown NSW 2042")

	superseded := <-first
	require.Equal(t, http.StatusNoContent, superseded.status)
	require.Empty(t, superseded.body)

	h.mu.Lock()
	require.Equal(t, []string{"new"}, h.queries)
	h.mu.Unlock()
}

func TestAssessment_LocationsShortQueryAndPlaceholder(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/location-autocomplete/": func(w http.ResponseWriter, r *http.Request) {
			writeBackendJSON(w, http.StatusOK, `{"results":[]}`)
		},
	})

	resp, body := h.get("/assessment/locations?q=n")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, strings.TrimSpace(body))

	resp, body = h.get("/assessment/locations?q=zz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "No results found")
	require.Contains(t, body, "disabled")

	h.mu.Lock()
	require.Equal(t, []string{"zz"}, h.queries)
	h.mu.Unlock()
}

func TestAssessment_SelectLocation(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.postForm("/assessment/locations/select", url.Values{
		"option": {`{"label":"Newtown NSW 2042","postcode":"2042","lat":-33.89,"lon":151.18}`},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fields map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &fields))
	require.Equal(t, map[string]string{"postcode": "2042", "city": "", "lat": "-33.89", "lon": "151.18"}, fields)

	_, page := h.get("/assessment/")
	require.Equal(t, "2042", parsePage(t, page).Find(`input[name="postcode"]`).AttrOr("value", ""))

	resp, body = h.postForm("/assessment/locations/select", url.Values{"option": {"{not json"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid_input", decodeErrorBody(t, []byte(body))["error"]["code"])
}

func TestAssessment_SubmitShowsResult(t *testing.T) {
	h := newHarness(t, nil)
	h.completeSteps()

	resp, body := h.postForm("/assessment/submit", url.Values{"moving_with_adults": {"1"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	page := parsePage(t, body)
	require.Equal(t, "display:none", page.Find("#assessmentForm").AttrOr("style", ""))
	result := page.Find("#result")
	require.Equal(t, "display:block", result.AttrOr("style", ""))
	require.Contains(t, result.Text(), "72")
	require.Equal(t, "Medium", result.Find(".risk-level").Text())
	require.Equal(t, "Stable income", result.Find(".strengths li").Text())
	_, disabled := page.Find("#submitAssessment").Attr("disabled")
	require.False(t, disabled)

	payload := h.lastPayload()
	require.Equal(t, "Jane Citizen", payload["full_name"])
	require.Equal(t, "1", payload["moving_with_adults"])
	docs, ok := payload[assessment.FieldDocuments].([]any)
	require.True(t, ok)
	require.Len(t, docs, 2)
	require.Equal(t, "passport", docs[0])
	require.True(t, strings.HasPrefix(docs[1].(string), "documents/"+h.sessionID()+"/"))
	require.True(t, strings.HasSuffix(docs[1].(string), "-payslip.pdf"))

	_, body = h.get("/assessment/")
	require.Equal(t, "display:block", parsePage(t, body).Find("#result").AttrOr("style", ""))

	resp, _ = h.postForm("/assessment/reset", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body = h.get("/assessment/")
	page = parsePage(t, body)
	require.Equal(t, []int{0}, activeSteps(page))
	require.Empty(t, page.Find("#full_name").AttrOr("value", ""))
}

func TestAssessment_SubmitFailureAlerts(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/assessment/submit/": func(w http.ResponseWriter, r *http.Request) {
			writeBackendJSON(w, http.StatusInternalServerError, `{"detail":"boom"}`)
		},
	})
	h.completeSteps()

	resp, body := h.postForm("/assessment/submit", url.Values{})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	page := parsePage(t, body)
	require.Equal(t, assessment.GenericFailureMessage, page.Find("#formAlert").Text())
	require.Equal(t, []int{4}, activeSteps(page))
	_, disabled := page.Find("#submitAssessment").Attr("disabled")
	require.False(t, disabled)
	require.Equal(t, "display:none", page.Find("#result").AttrOr("style", ""))
}

func TestAssessment_SubmitWhileInFlightConflicts(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/assessment/submit/": func(w http.ResponseWriter, r *http.Request) {
			close(entered)
			<-release
			writeBackendJSON(w, http.StatusOK, `{"readiness_score":40,"risk_level":"High"}`)
		},
	})
	h.completeSteps()

	done := make(chan int, 1)
	go func() {
		resp, _ := h.postForm("/assessment/submit", url.Values{})
		done <- resp.StatusCode
	}()
	<-entered

	_, body := h.get("/assessment/")
	_, disabled := parsePage(t, body).Find("#submitAssessment").Attr("disabled")
	require.True(t, disabled)

	resp, body := h.postForm("/assessment/submit", url.Values{})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "submit_in_flight", decodeErrorBody(t, []byte(body))["error"]["code"])

	close(release)
	require.Equal(t, http.StatusOK, <-done)
}

func signedAccessToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func loginRoutes(t *testing.T, logoutAuth chan<- string) map[string]http.HandlerFunc {
	access := signedAccessToken(t, time.Now().Add(time.Hour))
	return map[string]http.HandlerFunc{
		"/auth/api/login/": func(w http.ResponseWriter, r *http.Request) {
			var req account.LoginRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Password != "secret" {
				writeBackendJSON(w, http.StatusUnauthorized, `{"detail":"No active account"}`)
				return
			}
			writeBackendJSON(w, http.StatusOK, `{"access":"`+access+`","refresh":"refresh-1"}`)
		},
		"/auth/api/logout/": func(w http.ResponseWriter, r *http.Request) {
			if logoutAuth != nil {
				logoutAuth <- r.Header.Get("Authorization")
			}
			writeBackendJSON(w, http.StatusOK, `{}`)
		},
	}
}

func TestAuth_LoginStoresTokensAndRedirects(t *testing.T) {
	h := newHarness(t, loginRoutes(t, nil))

	resp, _ := h.postForm("/auth/login/", url.Values{"email": {"jane@example.com"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, account.HomePath, resp.Header.Get("Location"))

	_, body := h.get("/auth/navbar")
	var navbar account.NavbarState
	require.NoError(t, json.Unmarshal([]byte(body), &navbar))
	require.Equal(t, account.NavbarState{ShowLogout: true}, navbar)

	_, body = h.get("/assessment/")
	page := parsePage(t, body)
	require.Equal(t, account.MsgLoginSuccess, page.Find("#formAlert").Text())
	require.Equal(t, "display:none", page.Find(".nav-btn-login").AttrOr("style", ""))

	_, body = h.get("/assessment/")
	require.Empty(t, parsePage(t, body).Find("#formAlert").Text())

	refresh, ok, err := h.tokens.ForSession(h.sessionID()).Get(t.Context(), account.KeyRefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "refresh-1", refresh)
}

func TestAuth_LoginFailures(t *testing.T) {
	h := newHarness(t, loginRoutes(t, nil))

	resp, body := h.postForm("/auth/login/", url.Values{"email": {"jane@example.com"}, "password": {"wrong"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := parsePage(t, body)
	require.Equal(t, account.MsgInvalidCredentials, page.Find("#formAlert").Text())
	require.Equal(t, "jane@example.com", page.Find("#email").AttrOr("value", ""))

	resp, body = h.postForm("/auth/login/", url.Values{"email": {"not-an-email"}, "password": {"secret"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid email address", parsePage(t, body).Find("#formAlert").Text())
}

func TestAuth_LogoutRevokesAndReturns(t *testing.T) {
	auth := make(chan string, 1)
	h := newHarness(t, loginRoutes(t, auth))
	h.postForm("/auth/login/", url.Values{"email": {"jane@example.com"}, "password": {"secret"}})

	req, err := http.NewRequest(http.MethodPost, h.portal.URL+"/auth/logout/", nil)
	require.NoError(t, err)
	req.Header.Set("Referer", h.portal.URL+"/assessment/")
	resp, _ := h.do(req)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, AssessmentPath, resp.Header.Get("Location"))
	require.True(t, strings.HasPrefix(<-auth, "Bearer "))

	_, body := h.get("/auth/navbar")
	var navbar account.NavbarState
	require.NoError(t, json.Unmarshal([]byte(body), &navbar))
	require.Equal(t, account.NavbarState{ShowLogin: true, ShowSignup: true}, navbar)
}

func TestAuth_PasswordResetRedirectsToConfirm(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"/auth/api/password-reset/": func(w http.ResponseWriter, r *http.Request) {
			writeBackendJSON(w, http.StatusOK, `{"uid":"MTI"}`)
		},
		"/auth/api/reset-password-confirm/": func(w http.ResponseWriter, r *http.Request) {
			writeBackendJSON(w, http.StatusOK, `{"detail":"ok"}`)
		},
	})

	resp, _ := h.postForm("/auth/password-reset/", url.Values{"email": {"jane@example.com"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/auth/reset-password-confirm/MTI/", resp.Header.Get("Location"))

	resp, body := h.get("/auth/reset-password-confirm/MTI/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/auth/reset-password-confirm/MTI/", parsePage(t, body).Find("#resetPasswordForm").AttrOr("action", ""))

	resp, _ = h.postForm("/auth/reset-password-confirm/MTI/", url.Values{"password": {"n3w-pass"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, account.LoginPath, resp.Header.Get("Location"))

	_, body = h.get("/auth/login/")
	require.Equal(t, account.MsgResetSuccess, parsePage(t, body).Find("#formNotice").Text())
}

func TestAuth_EventsStreamTokenChanges(t *testing.T) {
	h := newHarness(t, loginRoutes(t, nil))
	h.get("/assessment/")

	req, err := http.NewRequest(http.MethodGet, h.portal.URL+"/auth/events", nil)
	require.NoError(t, err)
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line)

	h.postForm("/auth/login/", url.Values{"email": {"jane@example.com"}, "password": {"secret"}})

	var event, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
	require.Equal(t, "storage", event)
	var ev account.StorageEvent
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	require.Equal(t, account.StorageEvent{Key: account.KeyAccessToken}, ev)
	require.NotContains(t, data, "refresh-1")
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, nil)
	h.postForm("/assessment/next", stepValues[0])

	resp, body := h.get("/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `"status":"ok"`)

	resp, body = h.get("/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "portal_wizard_step_advances_total 1")
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
