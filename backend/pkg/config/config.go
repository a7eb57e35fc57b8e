package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// Auth
	GoogleClientID string

	// Phone normalization
	DefaultRegion string

	// CORS
	AllowedOrigins string

	// Rate limits, per caller per minute
	SyncRatePerMinute   int
	SearchRatePerMinute int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		Neo4jURI:            getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", "password"),
		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		DefaultRegion:       getEnv("DEFAULT_REGION", "US"),
		AllowedOrigins:      getEnv("ALLOWED_ORIGINS", "*"),
		SyncRatePerMinute:   getEnvInt("SYNC_RATE_PER_MINUTE", 5),
		SearchRatePerMinute: getEnvInt("SEARCH_RATE_PER_MINUTE", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Neo4jURI == "" {
		return fmt.Errorf("NEO4J_URI is required")
	}
	if c.Neo4jUser == "" {
		return fmt.Errorf("NEO4J_USER is required")
	}
	if c.Neo4jPassword == "" {
		return fmt.Errorf("NEO4J_PASSWORD is required")
	}
	if c.DefaultRegion == "" {
		return fmt.Errorf("DEFAULT_REGION is required")
	}
	if c.SyncRatePerMinute <= 0 {
		return fmt.Errorf("SYNC_RATE_PER_MINUTE must be positive")
	}
	if c.SearchRatePerMinute <= 0 {
		return fmt.Errorf("SEARCH_RATE_PER_MINUTE must be positive")
	}
	// Google client ID is optional for development: without it the verifier
	// accepts any audience, which is never what you want in production
	if c.IsProduction() && c.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required in production")
	}
	return nil
}

// Origins returns the parsed CORS origin list; ["*"] allows all
func (c *Config) Origins() []string {
	if strings.TrimSpace(c.AllowedOrigins) == "*" {
		return []string{"*"}
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
