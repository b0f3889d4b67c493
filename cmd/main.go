package main

import (
	"context"
	"fmt"
	"os"

	"github.com/neuroresolv/backend/internal/clients/gcp"
	"github.com/neuroresolv/backend/internal/clients/oracle"
	"github.com/neuroresolv/backend/internal/clients/pinecone"
	"github.com/neuroresolv/backend/internal/clients/redis"
	"github.com/neuroresolv/backend/internal/db"
	"github.com/neuroresolv/backend/internal/handlers"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/middleware"
	"github.com/neuroresolv/backend/internal/observability"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/server"
	"github.com/neuroresolv/backend/internal/services"
	"github.com/neuroresolv/backend/internal/utils"
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

	// Tracing
	ctx := context.Background()
	serviceName := utils.GetEnv("SERVICE_NAME", "neuroresolv", log)
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	defer func() {
		if err := shutdownOTel(ctx); err != nil {
			log.Warn("OTel shutdown failed", "error", err)
		}
	}()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	resolutionRepo := repos.NewResolutionRepo(thePG, log)
	milestoneRepo := repos.NewMilestoneRepo(thePG, log)
	progressLogRepo := repos.NewProgressLogRepo(thePG, log)
	verificationQuizRepo := repos.NewVerificationQuizRepo(thePG, log)
	streakRepo := repos.NewStreakRepo(thePG, log)
	learningMetricRepo := repos.NewLearningMetricRepo(thePG, log)
	syllabusRepo := repos.NewSyllabusRepo(thePG, log)
	dailySessionRepo := repos.NewDailySessionRepo(thePG, log)
	sessionQuizRepo := repos.NewSessionQuizRepo(thePG, log)
	weeklyGoalRepo := repos.NewWeeklyGoalRepo(thePG, log)
	northStarRepo := repos.NewNorthStarRepo(thePG, log)
	aiFeedbackRepo := repos.NewAIFeedbackRepo(thePG, log)
	learningEventRepo := repos.NewLearningEventRepo(thePG, log)
	materialFileRepo := repos.NewMaterialFileRepo(thePG, log)

	// Clients
	log.Info("Setting up clients from main...")
	oracleClient, err := oracle.NewClient(log)
	if err != nil {
		log.Error("Could not init oracle client", "error", err)
		os.Exit(1)
	}
	pineconeClient, err := pinecone.New(log, pinecone.Config{
		APIKey: os.Getenv("PINECONE_API_KEY"),
	})
	if err != nil {
		log.Error("Could not init Pinecone client", "error", err)
		os.Exit(1)
	}
	contentStore, err := pinecone.NewContentStore(log, pineconeClient)
	if err != nil {
		log.Error("Could not init content store", "error", err)
		os.Exit(1)
	}
	cache, err := redis.NewCache(log)
	if err != nil {
		log.Error("Could not init redis cache", "error", err)
		os.Exit(1)
	}
	defer cache.Close()
	speechClient, err := gcp.NewSpeech(log)
	if err != nil {
		log.Error("Could not init speech client", "error", err)
		os.Exit(1)
	}
	defer speechClient.Close()
	documentClient, err := gcp.NewDocument(log)
	if err != nil {
		log.Error("Could not init document client", "error", err)
		os.Exit(1)
	}
	defer documentClient.Close()

	// Services
	log.Info("Setting up Services from main...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	defer bucketService.Close()

	streakService := services.NewStreakService(log, streakRepo)
	analyticsService := services.NewAnalyticsService(log, learningEventRepo, learningMetricRepo, cache)
	metricsService := services.NewMetricsService(log, learningMetricRepo)
	recoveryService := services.NewRecoveryService(log, dailySessionRepo, analyticsService, oracleClient)
	roadmapService := services.NewRoadmapService(thePG, log, resolutionRepo, milestoneRepo, streakRepo, progressLogRepo, analyticsService, oracleClient)
	planService := services.NewPlanService(thePG, log, resolutionRepo, milestoneRepo, progressLogRepo, streakRepo, roadmapService)
	milestoneService := services.NewMilestoneService(thePG, log, milestoneRepo, resolutionRepo)
	verificationService := services.NewVerificationService(thePG, log, progressLogRepo, verificationQuizRepo, resolutionRepo, milestoneRepo, streakService, recoveryService, analyticsService, oracleClient, contentStore)
	sessionService := services.NewSessionService(thePG, log, resolutionRepo, syllabusRepo, dailySessionRepo, sessionQuizRepo, metricsService, recoveryService, analyticsService, oracleClient)
	resolutionService := services.NewResolutionService(thePG, log, userRepo, resolutionRepo, streakRepo, sessionService)
	progressService := services.NewProgressService(thePG, log, resolutionRepo, progressLogRepo, streakService, planService)
	weeklyGoalService := services.NewWeeklyGoalService(thePG, log, resolutionRepo, weeklyGoalRepo, streakRepo, learningMetricRepo, oracleClient)
	northStarService := services.NewNorthStarService(thePG, log, resolutionRepo, northStarRepo, oracleClient)
	feedbackService := services.NewFeedbackService(thePG, log, aiFeedbackRepo, resolutionRepo, weeklyGoalRepo, northStarRepo, roadmapService, weeklyGoalService, northStarService)
	materialService := services.NewMaterialService(thePG, log, resolutionRepo, materialFileRepo, bucketService, documentClient, contentStore, oracleClient)
	transcriptionService := services.NewTranscriptionService(log, speechClient)

	// Handlers
	log.Info("Setting up handlers from main...")
	resolutionHandler := handlers.NewResolutionHandler(log, resolutionService, roadmapService, milestoneService, planService, analyticsService)
	progressHandler := handlers.NewProgressHandler(log, progressService, verificationService, planService, transcriptionService)
	sessionHandler := handlers.NewSessionHandler(log, sessionService)
	goalsHandler := handlers.NewGoalsHandler(log, weeklyGoalService, northStarService)
	feedbackHandler := handlers.NewFeedbackHandler(log, feedbackService)
	materialHandler := handlers.NewMaterialHandler(log, materialService)

	// Middleware
	log.Info("Setting up middleware from main...")
	identityMiddleware, err := middleware.NewIdentityMiddleware(log)
	if err != nil {
		log.Error("Could not init identity middleware", "error", err)
		os.Exit(1)
	}

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:        serviceName,
		IdentityMiddleware: identityMiddleware,
		ResolutionHandler:  resolutionHandler,
		ProgressHandler:    progressHandler,
		SessionHandler:     sessionHandler,
		GoalsHandler:       goalsHandler,
		FeedbackHandler:    feedbackHandler,
		MaterialHandler:    materialHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
