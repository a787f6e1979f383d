package http

import (
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/assessment-portal/internal/domain/assessment"
	"github.com/yanqian/assessment-portal/internal/infra/config"
	"github.com/yanqian/assessment-portal/internal/infra/portalapi"
	"github.com/yanqian/assessment-portal/pkg/metrics"
)

const htmlContentType = "text/html; charset=utf-8"

// Handler wires the HTTP transport to the per-session runtimes.
type Handler struct {
	sessions  *Sessions
	metrics   *metrics.Portal
	maxUpload int64
	logger    *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg *config.Config, sessions *Sessions, logger *slog.Logger) *Handler {
	return &Handler{
		sessions:  sessions,
		metrics:   sessions.metrics,
		maxUpload: cfg.HTTP.MaxUploadBytes,
		logger:    logger.With("component", "http.handler"),
	}
}

// runtimeFor resolves the caller's session runtime or aborts the request.
func (h *Handler) runtimeFor(c *gin.Context) (*runtime, bool) {
	rt, err := h.sessions.get(c.Request.Context(), sessionIDFrom(c), forwardedCookies(c.Request))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "session_unavailable", "session could not be loaded", err))
		return nil, false
	}
	return rt, true
}

// forwardedCookies copies the backend CSRF cookie when the browser already
// holds one for a shared domain.
func forwardedCookies(r *http.Request) []*http.Cookie {
	ck, err := r.Cookie(portalapi.CSRFCookie)
	if err != nil || ck.Value == "" {
		return nil
	}
	return []*http.Cookie{{Name: ck.Name, Value: ck.Value, Path: "/"}}
}

// readForm parses an urlencoded or multipart body. Uploaded document files are
// returned separately; empty entries left by an untouched file input are
// dropped from the values.
func (h *Handler) readForm(c *gin.Context) (url.Values, []*multipart.FileHeader, error) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	var (
		values url.Values
		files  []*multipart.FileHeader
	)
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, nil, err
		}
		values = make(url.Values, len(form.Value))
		for name, vals := range form.Value {
			values[name] = append([]string(nil), vals...)
		}
		files = form.File[assessment.FieldDocumentFiles]
	} else {
		if err := c.Request.ParseForm(); err != nil {
			return nil, nil, err
		}
		values = make(url.Values, len(c.Request.PostForm))
		for name, vals := range c.Request.PostForm {
			values[name] = append([]string(nil), vals...)
		}
	}

	docs := values[assessment.FieldDocumentFiles][:0]
	for _, v := range values[assessment.FieldDocumentFiles] {
		if v != "" {
			docs = append(docs, v)
		}
	}
	if len(docs) == 0 {
		delete(values, assessment.FieldDocumentFiles)
	} else {
		values[assessment.FieldDocumentFiles] = docs
	}
	return values, files, nil
}

// safeRedirect keeps redirects on this host.
func safeRedirect(raw, fallback string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
