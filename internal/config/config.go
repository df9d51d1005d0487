package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

// Manager loads and holds the application configuration using Viper
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	// Set configuration file name and paths
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/wellness-chatbot/")

	// Set environment variable prefix and enable automatic env binding
	viper.SetEnvPrefix("WELLNESS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	m.setDefaults()

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	// Unmarshal configuration into struct
	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.request_timeout", "60s")
	viper.SetDefault("server.allowed_origins", []string{"*"})

	// Generative model defaults
	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("gemini.api_key", "")
	viper.SetDefault("gemini.text_model", "gemini-2.0-flash")
	viper.SetDefault("gemini.vision_model", "gemini-2.0-flash")
	viper.SetDefault("gemini.temperature", 0.7)
	viper.SetDefault("gemini.timeout", "60s")
	viper.SetDefault("gemini.rate_limit", 15)

	// History defaults
	viper.SetDefault("history.backend", "redis")
	viper.SetDefault("history.redis_url", "redis://localhost:6379")
	viper.SetDefault("history.key", "wellness:history")
	viper.SetDefault("history.sqlite_path", "./data/history.db")
	viper.SetDefault("history.postgres_dsn", "")

	// Archive defaults
	viper.SetDefault("archive.enabled", false)
	viper.SetDefault("archive.dsn", "")

	// Geolocation defaults
	viper.SetDefault("geo.base_url", "https://ipapi.co")
	viper.SetDefault("geo.api_key", "")
	viper.SetDefault("geo.timeout", "20s")
	viper.SetDefault("geo.cache_ttl", "5m")
	viper.SetDefault("geo.cache_size", 128)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")

	// MCP defaults
	viper.SetDefault("mcp.server_name", "wellness-mcp-server")
	viper.SetDefault("mcp.server_version", "v0.1.0")
	viper.SetDefault("mcp.request_timeout", "30s")

	// Reply language default
	viper.SetDefault("language", "English")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetGeminiConfig returns the generative-model API configuration
func (m *Manager) GetGeminiConfig() *domain.GeminiConfig {
	return &m.config.Gemini
}

// GetHistoryConfig returns history persistence configuration
func (m *Manager) GetHistoryConfig() *domain.HistoryConfig {
	return &m.config.History
}

// GetGeoConfig returns geolocation provider configuration
func (m *Manager) GetGeoConfig() *domain.GeoConfig {
	return &m.config.Geo
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// validHistoryBackends enumerates the supported history store backends.
var validHistoryBackends = map[string]bool{
	"redis": true, "sqlite": true, "postgres": true,
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	// Validate model configuration
	if config.Gemini.APIKey == "" {
		return fmt.Errorf("gemini API key is required")
	}
	if config.Gemini.TextModel == "" || config.Gemini.VisionModel == "" {
		return fmt.Errorf("gemini text and vision models are required")
	}

	// Validate history configuration
	backend := strings.ToLower(config.History.Backend)
	if !validHistoryBackends[backend] {
		return fmt.Errorf("unknown history backend: %s", config.History.Backend)
	}
	switch backend {
	case "redis":
		if config.History.RedisURL == "" {
			return fmt.Errorf("history redis_url is required for the redis backend")
		}
	case "sqlite":
		if config.History.SQLitePath == "" {
			return fmt.Errorf("history sqlite_path is required for the sqlite backend")
		}
	case "postgres":
		if config.History.PostgresDSN == "" {
			return fmt.Errorf("history postgres_dsn is required for the postgres backend")
		}
	}

	// Validate archive configuration
	if config.Archive.Enabled && config.Archive.DSN == "" {
		return fmt.Errorf("archive DSN is required when the archive is enabled")
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(viper.GetString("environment")) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(viper.GetString("environment"))
	return env == "development" || env == "dev" || env == ""
}
