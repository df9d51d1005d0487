// Package mcp exposes the triage services as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/config"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/database"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/history"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/logging"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/repository"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/service"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/pkg/gemini"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/pkg/geo"
)

// Server is the full MCP server. Unlike the lite variant it uses the complete
// configuration: any history backend, IP geolocation for coordinate-less
// doctor lookups, and the optional Postgres archive.
type Server struct {
	config    *config.Manager
	mcpServer *mcp.Server
	store     history.Store
	archiveDB *database.DB
	handlers  *Handlers
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance from the full configuration.
func NewServer(ctx context.Context, configManager *config.Manager) (*Server, error) {
	cfg := configManager.GetConfig()

	// Logs go to stderr regardless of the configured output; stdout carries
	// the protocol stream.
	logger := logging.NewStderr(cfg.Logging.Level, cfg.Logging.Format)

	store, err := history.New(cfg.History, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	model := gemini.NewClient(cfg.Gemini)
	prompts := service.NewPromptBuilder(cfg.Gemini)
	parser := service.NewResponseParser(logger)

	deps := HandlerDeps{
		Analyzer:   service.NewAnalysisService(logger, model, prompts, parser),
		Doctors:    service.NewDoctorLookupService(logger, model, prompts, parser),
		Classifier: service.NewVitalsClassifier(logger),
		Trends:     service.NewTrendAnalyzer(logger),
		Store:      store,
		Locator:    geo.NewClient(cfg.Geo, logger),
		Language:   cfg.Language,
		Timeout:    cfg.MCP.RequestTimeout,
	}

	server := &Server{
		config: configManager,
		store:  store,
		logger: logger,
	}

	if cfg.Archive.Enabled {
		archiveDB, err := openArchive(ctx, cfg.Archive.DSN, logger)
		if err != nil {
			store.Close()
			return nil, err
		}
		server.archiveDB = archiveDB
		deps.Archive = repository.NewAnalysisRepository(archiveDB.Pool, logger)
	}

	server.handlers = NewHandlers(deps, logger)

	serverInfo := &mcp.Implementation{
		Name:    cfg.MCP.ServerName,
		Version: cfg.MCP.ServerVersion,
	}
	server.mcpServer = mcp.NewServer(serverInfo, nil)
	registerTools(server.mcpServer, server.handlers, logger)

	return server, nil
}

// openArchive migrates the archive schema and opens the connection pool.
func openArchive(ctx context.Context, dsn string, logger *logrus.Logger) (*database.DB, error) {
	runner, err := database.NewMigrationRunner(dsn, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare archive migrations: %w", err)
	}
	if err := runner.Up(); err != nil {
		runner.Close()
		return nil, fmt.Errorf("failed to migrate archive schema: %w", err)
	}
	runner.Close()

	archiveDB, err := database.NewConnection(ctx, database.Config{DSN: dsn}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to archive: %w", err)
	}
	return archiveDB, nil
}

// registerTools registers every tool definition with the MCP SDK.
func registerTools(srv *mcp.Server, handlers *Handlers, logger *logrus.Logger) {
	defs := handlers.Definitions()
	for _, def := range defs {
		srv.AddTool(def.Tool, def.Handler)
		logger.WithField("tool_name", def.Tool.Name).Debug("Registered MCP tool")
	}
	logger.WithField("tool_count", len(defs)).Info("Successfully registered all tools")
}

// Start runs the MCP server over stdio until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting Wellness MCP Server...")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Close cleans up server resources.
func (s *Server) Close() error {
	var firstErr error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close history store")
			firstErr = err
		}
	}
	if s.archiveDB != nil {
		s.archiveDB.Close()
	}
	return firstErr
}
