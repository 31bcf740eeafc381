package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Discord  DiscordConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds MongoDB connection settings
type DatabaseConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
}

// JWTConfig holds service-token signing settings
type JWTConfig struct {
	Secret         string
	ExpirationMins int
	Issuer         string
}

// DiscordConfig holds bot gateway settings
type DiscordConfig struct {
	Enabled  bool
	BotToken string
	AppID    string
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			URI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGO_DATABASE", "questboard"),
			ConnectTimeout: getDurationEnv("MONGO_CONNECT_TIMEOUT", 10*time.Second),
			QueryTimeout:   getDurationEnv("MONGO_QUERY_TIMEOUT", 5*time.Second),
		},
		JWT: JWTConfig{
			Secret:         getEnv("JWT_SECRET", ""),
			ExpirationMins: getIntEnv("JWT_EXPIRATION_MINS", 60),
			Issuer:         getEnv("JWT_ISSUER", "questboard.ravenhall.gg"),
		},
		Discord: DiscordConfig{
			Enabled:  getBoolEnv("DISCORD_ENABLED", false),
			BotToken: getEnv("DISCORD_BOT_TOKEN", ""),
			AppID:    getEnv("DISCORD_APP_ID", ""),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	// Database validation
	if c.Database.URI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	} else if !strings.HasPrefix(c.Database.URI, "mongodb://") && !strings.HasPrefix(c.Database.URI, "mongodb+srv://") {
		errs = append(errs, fmt.Errorf("MONGO_URI must start with mongodb:// or mongodb+srv://, got '%s'", c.Database.URI))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("MONGO_DATABASE is required"))
	}

	// JWT validation - critical for production
	if c.IsProduction() && c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}

	// Discord validation - only when the gateway is enabled
	if c.Discord.Enabled {
		if c.Discord.BotToken == "" {
			errs = append(errs, errors.New("DISCORD_BOT_TOKEN is required when DISCORD_ENABLED is true"))
		}
		if c.Discord.AppID == "" {
			errs = append(errs, errors.New("DISCORD_APP_ID is required when DISCORD_ENABLED is true"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
