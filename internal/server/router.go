package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/neuroresolv/backend/internal/handlers"
	"github.com/neuroresolv/backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName        string
	IdentityMiddleware *middleware.IdentityMiddleware
	ResolutionHandler  *handlers.ResolutionHandler
	ProgressHandler    *handlers.ProgressHandler
	SessionHandler     *handlers.SessionHandler
	GoalsHandler       *handlers.GoalsHandler
	FeedbackHandler    *handlers.FeedbackHandler
	MaterialHandler    *handlers.MaterialHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.IdentityMiddleware.RequireIdentity())

	// Resolutions & roadmap
	api.POST("/resolutions", cfg.ResolutionHandler.Create)
	api.GET("/resolutions", cfg.ResolutionHandler.List)
	api.GET("/resolutions/:id", cfg.ResolutionHandler.Get)
	api.POST("/resolutions/:id/roadmap", cfg.ResolutionHandler.GenerateRoadmap)
	api.GET("/resolutions/:id/roadmap", cfg.ResolutionHandler.GetRoadmap)
	api.POST("/resolutions/:id/plan/refresh", cfg.ResolutionHandler.RefreshPlan)
	api.GET("/resolutions/:id/analytics", cfg.ResolutionHandler.GetAnalytics)
	api.POST("/milestones/:id/complete", cfg.ResolutionHandler.CompleteMilestone)
	api.PATCH("/milestones/:id", cfg.ResolutionHandler.EditMilestone)

	// Progress & verification
	api.POST("/resolutions/:id/progress", cfg.ProgressHandler.Log)
	api.GET("/resolutions/:id/progress", cfg.ProgressHandler.History)
	api.GET("/resolutions/:id/progress/today", cfg.ProgressHandler.Today)
	api.GET("/resolutions/:id/streak", cfg.ProgressHandler.Streak)
	api.GET("/resolutions/:id/overview", cfg.ProgressHandler.Overview)
	api.POST("/progress-logs/:id/verify", cfg.ProgressHandler.GenerateVerification)
	api.POST("/verification-quizzes/:id/submit", cfg.ProgressHandler.SubmitVerification)
	api.POST("/transcribe", cfg.ProgressHandler.Transcribe)

	// Daily sessions
	api.GET("/resolutions/:id/sessions", cfg.SessionHandler.List)
	api.GET("/resolutions/:id/sessions/today", cfg.SessionHandler.Today)
	api.GET("/sessions/:id", cfg.SessionHandler.Get)
	api.POST("/sessions/:id/complete", cfg.SessionHandler.Complete)
	api.POST("/sessions/:id/quiz", cfg.SessionHandler.GenerateQuiz)
	api.POST("/session-quizzes/:id/submit", cfg.SessionHandler.SubmitQuiz)

	// Weekly goal & north star
	api.GET("/resolutions/:id/weekly-goal", cfg.GoalsHandler.CurrentWeeklyGoal)
	api.POST("/weekly-goals/:id/dismiss", cfg.GoalsHandler.DismissWeeklyGoal)
	api.POST("/weekly-goals/:id/complete", cfg.GoalsHandler.CompleteWeeklyGoal)
	api.GET("/resolutions/:id/north-star", cfg.GoalsHandler.NorthStar)

	// Feedback
	api.POST("/feedback", cfg.FeedbackHandler.Create)
	api.POST("/feedback/:id/regenerate", cfg.FeedbackHandler.Regenerate)

	// Materials
	api.POST("/resolutions/:id/materials", cfg.MaterialHandler.Upload)
	api.GET("/resolutions/:id/materials", cfg.MaterialHandler.List)

	return router
}
