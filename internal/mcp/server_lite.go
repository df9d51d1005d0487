// This file contains the lightweight server that requires no external databases.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	litecfg "github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/config"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/history"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/service"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/pkg/gemini"
)

const (
	liteServerName = "wellness-mcp-server-lite"
	serverVersion  = "v0.1.0"

	liteToolTimeout = 60 * time.Second
)

// LiteServer is a lightweight MCP server that requires no external databases.
// History lives in a local SQLite file; there is no archive and no IP
// geolocation fallback, so find_doctors needs explicit coordinates.
type LiteServer struct {
	config    *litecfg.LiteConfig
	mcpServer *mcp.Server
	store     history.Store
	handlers  *Handlers
	logger    *logrus.Logger
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithHistoryStore sets a custom history store.
func WithHistoryStore(store history.Store) LiteServerOption {
	return func(s *LiteServer) error {
		s.store = store
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		s.logger = logger
		return nil
	}
}

// NewLiteServer creates a new lightweight MCP server instance.
func NewLiteServer(cfg *litecfg.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	server := &LiteServer{
		config: cfg,
		logger: logrus.New(),
	}

	// Default logger writes to stderr; stdout belongs to the protocol stream.
	if cfg.LogFormat == "text" {
		server.logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		server.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		server.logger.SetLevel(level)
	}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if server.store == nil {
		store, err := history.NewSQLiteStore(cfg.HistoryDBPath(), server.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		server.store = store
	}

	geminiCfg := cfg.GeminiConfig()
	model := gemini.NewClient(geminiCfg)
	prompts := service.NewPromptBuilder(geminiCfg)
	parser := service.NewResponseParser(server.logger)

	server.handlers = NewHandlers(HandlerDeps{
		Analyzer:   service.NewAnalysisService(server.logger, model, prompts, parser),
		Doctors:    service.NewDoctorLookupService(server.logger, model, prompts, parser),
		Classifier: service.NewVitalsClassifier(server.logger),
		Trends:     service.NewTrendAnalyzer(server.logger),
		Store:      server.store,
		Language:   cfg.Language,
		Timeout:    liteToolTimeout,
	}, server.logger)

	serverInfo := &mcp.Implementation{
		Name:    liteServerName,
		Version: serverVersion,
	}
	server.mcpServer = mcp.NewServer(serverInfo, nil)
	registerTools(server.mcpServer, server.handlers, server.logger)

	server.logger.Info("Lite server initialized successfully")
	return server, nil
}

// Start runs the MCP server over stdio until the context is cancelled.
func (s *LiteServer) Start(ctx context.Context) error {
	s.logger.Info("Starting Wellness MCP Server (Lite)...")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Close cleans up server resources.
func (s *LiteServer) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close history store")
			return err
		}
	}
	return nil
}
