package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yungbote/studytrack-backend/internal/cache"
	"github.com/yungbote/studytrack-backend/internal/db"
	"github.com/yungbote/studytrack-backend/internal/handlers"
	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/middleware"
	"github.com/yungbote/studytrack-backend/internal/observability"
	"github.com/yungbote/studytrack-backend/internal/repos"
	"github.com/yungbote/studytrack-backend/internal/server"
	"github.com/yungbote/studytrack-backend/internal/services"
	"github.com/yungbote/studytrack-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	port := utils.GetEnv("PORT", "8080", log)
	allowedOrigins := utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log)

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "studytrack-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(ctx); err != nil {
				log.Warn("OTel shutdown failed", "error", err)
			}
		}()
	}

	// Database
	dbService, err := db.NewDatabaseService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err = dbService.AutoMigrateAll(); err != nil {
		log.Error("Database auto migration failed", "error", err)
		os.Exit(1)
	}
	gdb := dbService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(gdb, log)
	userTokenRepo := repos.NewUserTokenRepo(gdb, log)
	taskRepo := repos.NewTaskRepo(gdb, log)
	interactionEventRepo := repos.NewInteractionEventRepo(gdb, log)
	habitRecordRepo := repos.NewHabitRecordRepo(gdb, log)

	// Context cache (optional; nil cache degrades to direct rebuilds)
	contextCache, err := cache.NewContextCache(log)
	if err != nil {
		log.Warn("Context cache unavailable, personalization will rebuild per request", "error", err)
		contextCache = nil
	}
	defer contextCache.Close()

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(
		gdb, log, userRepo, userTokenRepo,
		jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second,
		time.Duration(refreshTokenTTL)*time.Second,
	)
	habitTracker := services.NewHabitTrackerService(log, interactionEventRepo, habitRecordRepo, contextCache)
	habitQuery := services.NewHabitQueryService(log, habitRecordRepo)
	personalization := services.NewPersonalizationService(log, habitQuery, interactionEventRepo, contextCache)
	taskService := services.NewTaskService(gdb, log, taskRepo, habitTracker)

	openaiClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	insightsService := services.NewInsightsService(log, taskRepo, interactionEventRepo, habitQuery, personalization, openaiClient)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService, habitTracker)
	habitHandler := handlers.NewHabitHandler(habitQuery, personalization)
	insightsHandler := handlers.NewInsightsHandler(insightsService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	router := server.NewRouter(server.RouterConfig{
		ServiceName:     "studytrack-backend",
		AllowedOrigins:  origins,
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		TaskHandler:     taskHandler,
		HabitHandler:    habitHandler,
		InsightsHandler: insightsHandler,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
