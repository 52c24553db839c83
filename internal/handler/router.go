package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldpulse/surveyhub/internal/config"
	"fieldpulse/surveyhub/internal/handler/middleware"
	"fieldpulse/surveyhub/internal/repository"
	jwtpkg "fieldpulse/surveyhub/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	stateStore repository.StateStore,
	authHandler *AuthHandler,
	templateHandler *TemplateHandler,
	surveyHandler *SurveyHandler,
	tokenHandler *TokenHandler,
	publicHandler *PublicHandler,
	webhookHandler *WebhookHandler,
	analyticsHandler *AnalyticsHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Respondent-facing routes. No auth; tokens in the path are the only
	// credential. Rate limited per IP when enabled.
	public := r.Group("/")
	if cfg.RateLimit.Enabled {
		public.Use(middleware.RateLimit(stateStore, int64(cfg.RateLimit.PerWindow), cfg.RateLimit.Window, logger))
	}
	{
		public.GET("/s/:token", publicHandler.Entry)
		public.POST("/s/:token/layer1", publicHandler.SubmitLayer1)
		public.POST("/s/:token/layer2", publicHandler.SubmitLayer2)
		public.POST("/webhook/google-form", webhookHandler.GoogleForm)
	}

	// Public auth routes
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
	}

	// Researcher console routes
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(jwtManager))
	{
		protected.GET("/auth/me", authHandler.Me)

		// Template versioning
		protected.POST("/templates", templateHandler.Create)
		protected.GET("/templates", templateHandler.List)
		protected.GET("/templates/:id", templateHandler.Get)
		protected.PUT("/templates/:id", templateHandler.Update)
		protected.POST("/templates/:id/rollback", templateHandler.Rollback)
		protected.GET("/templates/name/:name/history", templateHandler.History)
		protected.DELETE("/templates/name/:name", templateHandler.Delete)

		// Survey lifecycle
		protected.POST("/surveys", surveyHandler.Create)
		protected.GET("/surveys", surveyHandler.List)
		protected.GET("/surveys/:id", surveyHandler.Get)
		protected.PUT("/surveys/:id", surveyHandler.Update)
		protected.PATCH("/surveys/:id/status", surveyHandler.UpdateStatus)
		protected.DELETE("/surveys/:id", surveyHandler.Delete)
		protected.GET("/surveys/:id/stats", surveyHandler.Stats)

		// Token management
		protected.POST("/surveys/:id/tokens", tokenHandler.Generate)
		protected.GET("/surveys/:id/tokens", tokenHandler.List)
		protected.GET("/surveys/:id/tokens/summary", tokenHandler.Summary)
		protected.POST("/tokens/extend-expiry", tokenHandler.ExtendExpiry)

		// Analytics
		protected.GET("/analytics/dashboard", analyticsHandler.Dashboard)
		protected.GET("/analytics/surveys/:id/trends", analyticsHandler.Trends)
		protected.GET("/analytics/orphans", analyticsHandler.Orphans)
		protected.GET("/analytics/orphans/:reason", analyticsHandler.OrphanDetails)
	}

	return r
}
