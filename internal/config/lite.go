// Package config provides configuration management for the wellness servers.
// This file contains the lightweight configuration for standalone operation.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It is loaded from environment variables only, requires no external
// databases and uses SQLite for history persistence.
type LiteConfig struct {
	// Data storage
	DataDir    string // Base directory for data files
	SQLitePath string // Optional: explicit history database path

	// Model settings
	GeminiAPIKey  string // API key for the generative-model service
	GeminiBaseURL string // Override for the generative-model endpoint
	TextModel     string // Model used for text-only analyses
	VisionModel   string // Model used when an image is attached

	// Reply language when a request does not name one
	Language string

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".wellness-chatbot")

	return &LiteConfig{
		DataDir:       dataDir,
		GeminiBaseURL: "https://generativelanguage.googleapis.com/v1beta",
		TextModel:     "gemini-2.0-flash",
		VisionModel:   "gemini-2.0-flash",
		Language:      "English",
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	// Data directory and history database
	if v := os.Getenv("WELLNESS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("WELLNESS_SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}

	// Model settings
	cfg.GeminiAPIKey = os.Getenv("WELLNESS_GEMINI_API_KEY")
	if cfg.GeminiAPIKey == "" {
		// Accept the conventional variable name as well
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if v := os.Getenv("WELLNESS_GEMINI_BASE_URL"); v != "" {
		cfg.GeminiBaseURL = v
	}
	if v := os.Getenv("WELLNESS_TEXT_MODEL"); v != "" {
		cfg.TextModel = v
	}
	if v := os.Getenv("WELLNESS_VISION_MODEL"); v != "" {
		cfg.VisionModel = v
	}

	// Language
	if v := os.Getenv("WELLNESS_LANGUAGE"); v != "" {
		cfg.Language = v
	}

	// Logging
	if v := os.Getenv("WELLNESS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WELLNESS_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// HistoryDBPath returns the path to the history SQLite database.
func (c *LiteConfig) HistoryDBPath() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.DataDir, "history.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

// GeminiConfig expands the lite settings into the full model-client
// configuration used by pkg/gemini.
func (c *LiteConfig) GeminiConfig() domain.GeminiConfig {
	return domain.GeminiConfig{
		BaseURL:     c.GeminiBaseURL,
		APIKey:      c.GeminiAPIKey,
		TextModel:   c.TextModel,
		VisionModel: c.VisionModel,
		Temperature: 0.7,
		Timeout:     60 * time.Second,
		RateLimit:   15,
	}
}
