package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/assessment-portal/internal/infra/config"
)

const sessionIDKey = "portal_session_id"

// sessionMiddleware issues the browser session cookie and exposes its id to
// handlers. Unknown or malformed ids are replaced with a fresh one.
func sessionMiddleware(cfg config.SessionConfig) gin.HandlerFunc {
	maxAge := int(cfg.TTL.Seconds())
	return func(c *gin.Context) {
		id, err := c.Cookie(cfg.CookieName)
		if err != nil || !validSessionID(id) {
			id = uuid.NewString()
		}
		secure := cfg.SecureCookie || c.Request.TLS != nil
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, id, maxAge, "/", "", secure, true)
		c.Set(sessionIDKey, id)
		c.Next()
	}
}

func validSessionID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func sessionIDFrom(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
