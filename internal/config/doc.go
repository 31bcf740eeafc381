// Package config manages application configuration for the Questboard API.
//
// The config package loads and validates configuration from environment variables.
// All configuration is centralized here to provide a single source of truth.
//
// # Configuration Loading
//
// Configuration is loaded from environment variables:
//
//	cfg, err := config.Load()
//
// # Configuration Groups
//
// Configuration is organized into logical groups:
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS origins)
//   - DatabaseConfig: MongoDB connection settings
//   - JWTConfig: service-token signing and validation settings
//   - DiscordConfig: bot gateway settings
//
// # Environment Variables
//
// Key environment variables:
//
//	SERVER_PORT        - HTTP server port (default: 8080)
//	MONGO_URI          - MongoDB connection string
//	MONGO_DATABASE     - Database name
//	JWT_SECRET         - Service-token signing secret
//	JWT_EXPIRATION_MINS- Token expiration in minutes
//	DISCORD_BOT_TOKEN  - Bot token, required when DISCORD_ENABLED=true
//
// # Default Values
//
// Sensible defaults are provided for development:
//
//	func getEnv(key, defaultValue string) string {
//	    if value := os.Getenv(key); value != "" {
//	        return value
//	    }
//	    return defaultValue
//	}
package config
