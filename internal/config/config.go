// Package config provides configuration management for Recall.
// It loads settings from environment variables with the RECALL_ prefix
// and provides sensible defaults for all configuration options.
package config

import (
	"os"
	"strconv"
)

// Config holds all configuration settings for the Recall application.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Security SecurityConfig
	Review   ReviewConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 3001)
	Host string // Server host (default: 127.0.0.1)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine type: sqlite, postgres (default: sqlite)
	DataPath      string // Path to data directory for SQLite (default: ./data)
	PostgresDSN   string // Postgres connection string when StorageEngine is postgres
}

// LLMConfig contains model provider configuration. A provider with an empty
// key is considered unavailable and skipped by the failover manager.
type LLMConfig struct {
	GeminiAPIKey    string // Gemini API key
	GeminiModel     string // Gemini model name (default: gemini-2.5-flash)
	OpenAIAPIKey    string // OpenAI API key
	OpenAIModel     string // OpenAI model name (default: gpt-4o-mini)
	AnthropicAPIKey string // Anthropic API key
	AnthropicModel  string // Anthropic model name (default: claude-3-5-haiku-latest)
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // Security mode: development, production (default: development)
	APIToken     string // API authentication token
}

// ReviewConfig contains review session defaults.
type ReviewConfig struct {
	DefaultSessionLimit int // Default number of due cards per session (default: 10)
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the RECALL_ prefix; the bare
// GEMINI_API_KEY / OPENAI_API_KEY / ANTHROPIC_API_KEY names are honored as
// fallbacks so existing provider credentials work unchanged.
func LoadConfig() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("RECALL_PORT", 3001),
			Host: getEnv("RECALL_HOST", "127.0.0.1"),
		},
		Storage: StorageConfig{
			StorageEngine: getEnv("RECALL_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("RECALL_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("RECALL_POSTGRES_DSN", ""),
		},
		LLM: LLMConfig{
			GeminiAPIKey:    getEnvFallback("RECALL_GEMINI_API_KEY", "GEMINI_API_KEY"),
			GeminiModel:     getEnv("RECALL_GEMINI_MODEL", "gemini-2.5-flash"),
			OpenAIAPIKey:    getEnvFallback("RECALL_OPENAI_API_KEY", "OPENAI_API_KEY"),
			OpenAIModel:     getEnv("RECALL_OPENAI_MODEL", "gpt-4o-mini"),
			AnthropicAPIKey: getEnvFallback("RECALL_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"),
			AnthropicModel:  getEnv("RECALL_ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("RECALL_SECURITY_MODE", "development"),
			APIToken:     getEnv("RECALL_API_TOKEN", ""),
		},
		Review: ReviewConfig{
			DefaultSessionLimit: getEnvInt("RECALL_SESSION_LIMIT", 10),
		},
	}, nil
}

// HasAnyProvider reports whether any model provider key is configured.
func (c LLMConfig) HasAnyProvider() bool {
	return c.GeminiAPIKey != "" || c.OpenAIAPIKey != "" || c.AnthropicAPIKey != ""
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFallback retrieves the first non-empty value among the given keys.
func getEnvFallback(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. If the variable exists but cannot be parsed, the default is used.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
