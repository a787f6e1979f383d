package http

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/assessment-portal/internal/domain/account"
	apperrors "github.com/yanqian/assessment-portal/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

var authTemplates = template.Must(template.New("auth").ParseFS(templateFS, "templates/*.html"))

// Page template names.
const (
	pageLogin         = "login"
	pageSignup        = "signup"
	pagePasswordReset = "password_reset"
	pageResetConfirm  = "reset_confirm"
)

type authPage struct {
	Title    string
	Alert    string
	Notice   string
	Navbar   account.NavbarState
	Email    string
	FullName string
	UID      string
}

type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

type signupForm struct {
	FullName string `form:"full_name"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

type passwordResetForm struct {
	Email string `form:"email"`
}

type resetConfirmForm struct {
	Password string `form:"password"`
}

// LoginPage renders the login form.
func (h *Handler) LoginPage(c *gin.Context) {
	h.showAuthPage(c, pageLogin, authPage{Title: "Log in"})
}

// Login runs the login flow with the posted credentials.
func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	page := authPage{Title: "Log in", Email: form.Email}
	h.runAuth(c, pageLogin, page, func(rt *runtime) (account.Outcome, error) {
		return rt.account.Login(c.Request.Context(), account.LoginRequest{Email: form.Email, Password: form.Password})
	})
}

// SignupPage renders the signup form.
func (h *Handler) SignupPage(c *gin.Context) {
	h.showAuthPage(c, pageSignup, authPage{Title: "Sign up"})
}

// Signup creates an account.
func (h *Handler) Signup(c *gin.Context) {
	var form signupForm
	if err := c.ShouldBind(&form); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	page := authPage{Title: "Sign up", Email: form.Email, FullName: form.FullName}
	h.runAuth(c, pageSignup, page, func(rt *runtime) (account.Outcome, error) {
		return rt.account.Signup(c.Request.Context(), account.SignupRequest{
			FullName: form.FullName,
			Email:    form.Email,
			Password: form.Password,
		})
	})
}

// PasswordResetPage renders the forgot password form.
func (h *Handler) PasswordResetPage(c *gin.Context) {
	h.showAuthPage(c, pagePasswordReset, authPage{Title: "Forgot password"})
}

// RequestPasswordReset starts a reset for the posted email.
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var form passwordResetForm
	if err := c.ShouldBind(&form); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	page := authPage{Title: "Forgot password", Email: form.Email}
	h.runAuth(c, pagePasswordReset, page, func(rt *runtime) (account.Outcome, error) {
		return rt.account.RequestPasswordReset(c.Request.Context(), account.PasswordResetRequest{Email: form.Email})
	})
}

// ResetConfirmPage renders the new password form for a reset uid.
func (h *Handler) ResetConfirmPage(c *gin.Context) {
	h.showAuthPage(c, pageResetConfirm, authPage{Title: "Reset password", UID: c.Param("uid")})
}

// ConfirmPasswordReset sets the new password for the uid in the path.
func (h *Handler) ConfirmPasswordReset(c *gin.Context) {
	var form resetConfirmForm
	if err := c.ShouldBind(&form); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	uid := c.Param("uid")
	page := authPage{Title: "Reset password", UID: uid}
	h.runAuth(c, pageResetConfirm, page, func(rt *runtime) (account.Outcome, error) {
		return rt.account.ConfirmPasswordReset(c.Request.Context(), account.PasswordResetConfirmRequest{UID: uid, Password: form.Password})
	})
}

// Logout revokes the session's tokens and returns to the page it came from.
func (h *Handler) Logout(c *gin.Context) {
	rt, ok := h.runtimeFor(c)
	if !ok {
		return
	}
	rt.mu.Lock()
	_, err := rt.account.Logout(c.Request.Context())
	rt.mu.Unlock()
	if err != nil {
		h.logger.Error("logout error", "error", err)
	}
	c.Redirect(http.StatusSeeOther, safeRedirect(c.Request.Referer(), account.HomePath))
}

// Navbar reports which auth buttons the session should show.
func (h *Handler) Navbar(c *gin.Context) {
	rt, ok := h.runtimeFor(c)
	if !ok {
		return
	}
	state, err := rt.account.Navbar(c.Request.Context())
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, state)
}

// Events streams the session's token storage changes using Server-Sent
// Events so other open pages can refresh their navbar.
func (h *Handler) Events(c *gin.Context) {
	rt, ok := h.runtimeFor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	events, err := rt.tokens.Watch(ctx)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "watch_failed", errMessage(err), err))
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "stream_unsupported", "streaming not supported", nil))
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Write([]byte(": connected\n\n"))
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("marshal storage event failed", "error", err)
				continue
			}
			c.Writer.Write([]byte("event: storage\ndata: "))
			c.Writer.Write(payload)
			c.Writer.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}

func (h *Handler) showAuthPage(c *gin.Context, name string, page authPage) {
	rt, ok := h.runtimeFor(c)
	if !ok {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	page.Notice, rt.flash = rt.flash, ""
	h.renderAuth(c, rt, name, page, http.StatusOK)
}

// runAuth runs one account flow under the session lock. A redirecting
// outcome carries its message to the next page; otherwise the form is shown
// again with the alert.
func (h *Handler) runAuth(c *gin.Context, name string, page authPage, flow func(rt *runtime) (account.Outcome, error)) {
	rt, ok := h.runtimeFor(c)
	if !ok {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	outcome, err := flow(rt)
	if err != nil {
		status := http.StatusBadGateway
		if apperrors.IsCode(err, apperrors.CodeInvalidInput) {
			status = http.StatusBadRequest
			page.Alert = errMessage(err)
		}
		h.renderAuth(c, rt, name, page, status)
		return
	}
	if outcome.Redirect != "" {
		rt.flash = outcome.Alert
		c.Redirect(http.StatusSeeOther, outcome.Redirect)
		return
	}
	page.Alert = outcome.Alert
	h.renderAuth(c, rt, name, page, http.StatusOK)
}

func (h *Handler) renderAuth(c *gin.Context, rt *runtime, name string, page authPage, status int) {
	navbar, err := rt.account.Navbar(c.Request.Context())
	if err != nil {
		h.logger.Warn("navbar state unavailable", "error", err)
		navbar = account.NavbarFor("", time.Now())
	}
	page.Navbar = navbar
	c.HTML(status, name, page)
}
