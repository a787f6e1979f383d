package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/assessment-portal/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.SetHTMLTemplate(authTemplates)
	router.MaxMultipartMemory = cfg.HTTP.MaxUploadBytes
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": handler.sessions.Len()})
	})
	router.GET("/metrics", gin.WrapH(handler.metrics.Handler()))

	portal := router.Group("/",
		rateLimitMiddleware(cfg.HTTP.RateLimit, nil, handler.logger),
		sessionMiddleware(cfg.Session),
	)
	portal.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, AssessmentPath)
	})

	assessment := portal.Group("/assessment")
	{
		assessment.GET("/", handler.ShowAssessment)
		assessment.POST("/next", handler.NextStep)
		assessment.POST("/submit", handler.SubmitAssessment)
		assessment.POST("/reset", handler.ResetAssessment)
		assessment.GET("/locations", handler.Locations)
		assessment.POST("/locations/select", handler.SelectLocation)
	}

	auth := portal.Group("/auth")
	{
		auth.GET("/login/", handler.LoginPage)
		auth.POST("/login/", handler.Login)
		auth.GET("/signup/", handler.SignupPage)
		auth.POST("/signup/", handler.Signup)
		auth.GET("/password-reset/", handler.PasswordResetPage)
		auth.POST("/password-reset/", handler.RequestPasswordReset)
		auth.GET("/reset-password-confirm/:uid/", handler.ResetConfirmPage)
		auth.POST("/reset-password-confirm/:uid/", handler.ConfirmPasswordReset)
		auth.POST("/logout/", handler.Logout)
		auth.GET("/navbar", handler.Navbar)
		auth.GET("/events", handler.Events)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
