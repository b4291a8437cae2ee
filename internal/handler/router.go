package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"strive/meetuphub/internal/config"
	"strive/meetuphub/internal/handler/middleware"
	jwtpkg "strive/meetuphub/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	meetupHandler *MeetupHandler,
	participationHandler *ParticipationHandler,
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

	// Public browse routes
	public := r.Group("/api/v1")
	{
		public.GET("/meetups", meetupHandler.List)
		public.GET("/meetups/:id", meetupHandler.Get)
	}

	// Protected routes: caller identity comes from the access token issued
	// by the external identity service.
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(jwtManager))
	{
		protected.POST("/meetups", meetupHandler.Create)
		protected.PUT("/meetups/:id", meetupHandler.Update)
		protected.DELETE("/meetups/:id", meetupHandler.Delete)

		protected.POST("/meetups/:id/participations", participationHandler.Request)
		protected.DELETE("/meetups/:id/participations/me", participationHandler.Cancel)
		protected.PATCH("/meetups/:id/participations/:participationId/approve", participationHandler.Approve)
		protected.PATCH("/meetups/:id/participations/:participationId/reject", participationHandler.Reject)
		protected.GET("/meetups/:id/participations", participationHandler.List)
	}

	return r
}
