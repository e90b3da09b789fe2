// @title MindPulse API
// @version 1.0
// @description Workplace wellbeing aggregation backend
// @host localhost:8080
// @BasePath /api

package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mindpulse-be/config"
	"mindpulse-be/internal/database"
	"mindpulse-be/internal/handlers"
	"mindpulse-be/internal/middleware"
	"mindpulse-be/internal/models"
	"mindpulse-be/internal/repository"
	"mindpulse-be/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongodb, err := database.NewMongoDB(cfg.MongoDBURI, cfg.MongoDBDatabase)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongodb.Disconnect()

	if err := mongodb.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create indexes")
	}

	// Repositories
	userRepo := repository.NewUserRepository(mongodb.Database)
	channelRepo := repository.NewChannelRepository(mongodb.Database)
	messageRepo := repository.NewMessageRepository(mongodb.Database)
	aggregateRepo := repository.NewAggregateRepository(mongodb.Database)

	// Services
	classifier := services.NewHTTPClassifier(cfg)
	analysisService := services.NewAnalysisService(messageRepo, classifier)
	analysisWorker := services.NewAnalysisWorker(
		analysisService,
		cfg.AnalysisWorkers,
		cfg.AnalysisQueueSize,
		cfg.ClassifierMaxRetries,
		cfg.ClassifierRetryBase,
		cfg.ClassifierTimeout,
	)
	ingestionService := services.NewIngestionService(channelRepo, messageRepo, userRepo, analysisWorker)
	aggregationService := services.NewAggregationService(messageRepo, aggregateRepo)
	analyticsService := services.NewAnalyticsService(aggregateRepo, userRepo)

	// Background workers
	analysisWorker.Start(ctx)
	aggregationWorker := services.NewAggregationWorker(
		aggregationService,
		cfg.AggregationInterval,
		models.PeriodType(cfg.AggregationPeriodType),
	)
	aggregationWorker.Start(ctx)

	// Requeue anything a previous instance left pending or failed.
	maintenance := services.NewMaintenanceService(messageRepo, aggregateRepo, analysisWorker, cfg.MessageRetentionDays, cfg.AggregateRetentionDays)
	if requeued, err := maintenance.ResyncPending(ctx, 0); err != nil {
		log.Error().Err(err).Msg("Startup resync failed")
	} else if requeued > 0 {
		log.Info().Int("requeued", requeued).Msg("Startup resync requeued messages")
	}

	// Handlers
	messageHandler := handlers.NewMessageHandler(ingestionService, messageRepo)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	channelHandler := handlers.NewChannelHandler(channelRepo)
	healthHandler := handlers.NewHealthHandler(mongodb, analysisWorker)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg))

	api := r.Group("/api")
	{
		api.GET("/health", healthHandler.Health)

		api.POST("/messages", messageHandler.IngestMessages)
		api.GET("/messages/:id", messageHandler.GetMessage)

		api.GET("/channels", channelHandler.ListChannels)
		api.POST("/channels", channelHandler.RegisterChannel)

		analytics := api.Group("/analytics")
		{
			analytics.GET("/team-dashboard", analyticsHandler.GetTeamAnalytics)
			analytics.GET("/user-wellbeing", analyticsHandler.GetUserWellbeing)
			analytics.GET("/channel-comparison", analyticsHandler.GetChannelComparison)
			analytics.GET("/trends", analyticsHandler.GetTrends)
			analytics.GET("/alerts", analyticsHandler.GetAlerts)
		}
	}

	// Swagger route
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	log.Info().Str("port", cfg.Port).Msg("Server starting")

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
		aggregationWorker.Stop()
		analysisWorker.Wait()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server exited")
	}
	log.Info().Msg("Server stopped")
}
