package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/studytrack-backend/internal/handlers"
	"github.com/yungbote/studytrack-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName     string
	AllowedOrigins  []string
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	TaskHandler     *handlers.TaskHandler
	HabitHandler    *handlers.HabitHandler
	InsightsHandler *handlers.InsightsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "studytrack"
	}
	router.Use(otelgin.Middleware(serviceName))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// Protected
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)

	api := protected.Group("/api")

	// Tasks
	api.POST("/tasks", cfg.TaskHandler.Create)
	api.GET("/tasks", cfg.TaskHandler.List)
	api.PATCH("/tasks/:id", cfg.TaskHandler.Update)
	api.DELETE("/tasks/:id", cfg.TaskHandler.Delete)
	api.POST("/tasks/:id/delay", cfg.TaskHandler.Delay)
	api.POST("/tasks/:id/skip", cfg.TaskHandler.Skip)

	// Suggestion feedback
	api.POST("/suggestions/:id/feedback", cfg.TaskHandler.SuggestionFeedback)

	// Habits
	api.GET("/habits", cfg.HabitHandler.List)
	api.GET("/habits/top-hours", cfg.HabitHandler.TopHours)
	api.GET("/habits/top-categories", cfg.HabitHandler.TopCategories)
	api.GET("/habits/suggestion-accuracy", cfg.HabitHandler.SuggestionAccuracy)

	// Insights
	api.GET("/insights/learning", cfg.InsightsHandler.LearningSummary)
	api.GET("/insights/context", cfg.HabitHandler.PersonalizationContext)
	api.POST("/ai/suggest-tasks", cfg.InsightsHandler.SuggestTasks)
	api.POST("/ai/predict-deadline", cfg.InsightsHandler.PredictDeadline)
	api.POST("/ai/optimize-schedule", cfg.InsightsHandler.OptimizeSchedule)
	api.POST("/ai/chat", cfg.InsightsHandler.Chat)

	return router
}
