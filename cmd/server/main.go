package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vantagecare/questionnaire-service/internal/cache"
	"github.com/vantagecare/questionnaire-service/internal/config"
	"github.com/vantagecare/questionnaire-service/internal/handlers"
	"github.com/vantagecare/questionnaire-service/internal/repositories"
	"github.com/vantagecare/questionnaire-service/internal/repositories/memory"
	"github.com/vantagecare/questionnaire-service/internal/repositories/postgres"
	"github.com/vantagecare/questionnaire-service/internal/scoring"
	"github.com/vantagecare/questionnaire-service/internal/services"
	"github.com/vantagecare/questionnaire-service/internal/utils"
	"github.com/vantagecare/questionnaire-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "development" {
		logger = utils.NewDevelopmentLogger()
	} else {
		logger = utils.NewDefaultLogger()
	}
	slogger := utils.ToSlog(logger)

	// Storage: postgres when a database is reachable, otherwise an
	// in-memory store so the service still runs for local evaluation.
	var repo repositories.Repository
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Warn("database unavailable, using in-memory store", "error", err)
		repo = memory.NewRepository()
	} else {
		pgRepo := postgres.NewRepository(db)
		if err := pgRepo.AutoMigrate(); err != nil {
			logger.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		repo = pgRepo
	}

	var cacheService cache.CacheService = cache.NoopCache{}
	if cfg.RedisURL != "" {
		redisClient, err := pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("redis unavailable, caching disabled", "error", err)
		} else {
			cacheService = cache.NewRedisCache(redisClient, slogger)
		}
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.Error("failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	engine := scoring.NewEngine(slogger)
	scoringService := services.NewScoringConfigService(repo, engine, cacheService, publisher, slogger)
	exportService := services.NewExportService(repo, slogger)
	validator := utils.NewValidator()

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(scoringService, exportService, validator, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down, waiting for in-flight requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}
