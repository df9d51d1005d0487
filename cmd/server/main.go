package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/api"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/config"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/database"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/history"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/logging"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/repository"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/service"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/pkg/gemini"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/pkg/geo"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.New(cfg.Logging)

	store, err := history.New(cfg.History, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open history store")
	}
	defer store.Close()

	model := gemini.NewClient(cfg.Gemini)
	prompts := service.NewPromptBuilder(cfg.Gemini)
	parser := service.NewResponseParser(logger)

	deps := api.Deps{
		Analyzer:   service.NewAnalysisService(logger, model, prompts, parser),
		Doctors:    service.NewDoctorLookupService(logger, model, prompts, parser),
		Classifier: service.NewVitalsClassifier(logger),
		Trends:     service.NewTrendAnalyzer(logger),
		Store:      store,
		Locator:    geo.NewClient(cfg.Geo, logger),
	}

	// Optional long-term archive
	if cfg.Archive.Enabled {
		migrator, err := database.NewMigrationRunner(cfg.Archive.DSN, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to prepare archive migrations")
		}
		if err := migrator.Up(); err != nil {
			logger.WithError(err).Fatal("Failed to run archive migrations")
		}
		migrator.Close()

		archiveDB, err := database.NewConnection(context.Background(), database.Config{DSN: cfg.Archive.DSN}, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to archive database")
		}
		defer archiveDB.Close()

		deps.Archive = repository.NewAnalysisRepository(archiveDB.Pool, logger)
	}

	server := api.NewServer(cfg, logger, deps)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}
