package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ragbase/console/internal/api"
	"github.com/ragbase/console/internal/config"
	"github.com/ragbase/console/internal/modelparams"
	"github.com/ragbase/console/internal/repository"
	"github.com/ragbase/console/internal/service"
	"github.com/ragbase/console/internal/storage"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	collectionRepo := repository.NewCollectionRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize object storage for uploaded documents
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	files, err := storage.NewFileStore(ctx, cfg.Storage)
	cancel()
	if err != nil {
		logger.Warn("Failed to initialize file storage, document uploads disabled", zap.Error(err))
		files = nil
	}

	// Model parameter catalog for the chat playground
	registry := modelparams.DefaultRegistry()
	if cfg.Models.ParamsPath != "" {
		registry, err = modelparams.LoadFile(cfg.Models.ParamsPath)
		if err != nil {
			logger.Fatal("Failed to load model parameter catalog", zap.Error(err))
		}
	}

	// Initialize services
	collectionService := service.NewCollectionService(collectionRepo, userRepo, files, cfg.Sharing)
	templateService := service.NewTemplateService(templateRepo)
	pipelineService := service.NewPipelineService(cfg.Pipelines)
	statsService := service.NewStatsService(collectionRepo, templateRepo, userRepo)

	generationService, err := service.NewGenerationService(cfg.LLM, templateRepo, registry)
	if err != nil {
		logger.Fatal("Failed to initialize generation service", zap.Error(err))
	}

	// Setup router
	router := api.SetupRouter(
		collectionService,
		templateService,
		pipelineService,
		generationService,
		statsService,
		userRepo,
		api.RouterConfig{
			JWTSecret:    cfg.Auth.JWTSecret,
			AllowOrigins: []string{"*"},
			Logger:       logger,
		},
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting console server",
			zap.String("address", cfg.Address()),
			zap.String("base_url", cfg.Server.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
