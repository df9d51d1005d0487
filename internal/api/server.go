// Package api provides the HTTP delivery layer: the gin server, the REST
// triage endpoints, and the live vitals WebSocket channel.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/history"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/middleware"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/service"
)

// shutdownGrace bounds how long in-flight requests get to finish once the
// server is asked to stop.
const shutdownGrace = 5 * time.Second

// Locator resolves a position for a request that arrived without coordinates.
type Locator interface {
	LocateIP(ctx context.Context, ip string, opts domain.PositionOptions) (domain.Position, error)
}

// Archiver persists successful analyses to the long-term archive.
type Archiver interface {
	Save(ctx context.Context, entry domain.HistoryEntry) error
}

// Deps carries the services the HTTP layer delivers. Archive may be nil when
// archiving is disabled; every other field is required.
type Deps struct {
	Analyzer   *service.AnalysisService
	Doctors    *service.DoctorLookupService
	Classifier *service.VitalsClassifier
	Trends     *service.TrendAnalyzer
	Store      history.Store
	Locator    Locator
	Archive    Archiver
}

// Server represents the HTTP server
type Server struct {
	cfg        *domain.Config
	logger     *logrus.Logger
	router     *gin.Engine
	httpServer *http.Server
	upgrader   websocket.Upgrader

	analyzer   *service.AnalysisService
	doctors    *service.DoctorLookupService
	classifier *service.VitalsClassifier
	trends     *service.TrendAnalyzer
	store      history.Store
	locator    Locator
	archive    Archiver
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *domain.Config, logger *logrus.Logger, deps Deps) *Server {
	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	server := &Server{
		cfg:        cfg,
		logger:     logger,
		router:     router,
		upgrader:   newUpgrader(cfg.Server.AllowedOrigins),
		analyzer:   deps.Analyzer,
		doctors:    deps.Doctors,
		classifier: deps.Classifier,
		trends:     deps.Trends,
		store:      deps.Store,
		locator:    deps.Locator,
		archive:    deps.Archive,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// newUpgrader builds the WebSocket upgrader with the same origin policy as
// the CORS middleware.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowAll {
				return true
			}
			return allowed[origin]
		},
	}
}

// Router exposes the configured handler, primarily for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.cfg.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.WithField("addr", addr).Info("HTTP server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	timeout := middleware.RequestTimeout(s.cfg.Server.RequestTimeout)

	// Health check endpoint
	s.router.GET("/health", timeout, s.handleHealth)

	// API v1 routes. The live vitals channel stays outside the per-request
	// timeout; a stream lives as long as the client holds it open.
	v1 := s.router.Group("/api/v1")
	v1.GET("/vitals/live", s.handleVitalsLive)

	rest := v1.Group("")
	rest.Use(timeout)
	{
		rest.POST("/analyze", s.handleAnalyze)
		rest.POST("/vitals/check", s.handleVitalsCheck)
		rest.POST("/doctors/nearby", s.handleDoctorsNearby)
		rest.GET("/history", s.handleHistoryList)
		rest.DELETE("/history", s.handleHistoryClear)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	historyStatus := "healthy"
	if _, err := s.store.List(c.Request.Context()); err != nil {
		s.logger.WithError(err).Warn("History backend failed health probe")
		historyStatus = "unhealthy"
	}

	archiveStatus := "disabled"
	if s.archive != nil {
		archiveStatus = "enabled"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   s.cfg.MCP.ServerVersion,
		"components": gin.H{
			"history": gin.H{
				"backend": s.cfg.History.Backend,
				"status":  historyStatus,
			},
			"archive": archiveStatus,
		},
	})
}
