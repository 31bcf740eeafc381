package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate_ValidConfig(t *testing.T) {
	cfg := validBaseConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestConfig_Validate_InvalidServerEnv(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Env = "invalid"

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for invalid SERVER_ENV")
	}
	if !strings.Contains(err.Error(), "SERVER_ENV") {
		t.Errorf("expected error to mention SERVER_ENV, got: %v", err)
	}
}

func TestConfig_Validate_MissingPort(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Port = ""

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for missing SERVER_PORT")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("expected error to mention SERVER_PORT, got: %v", err)
	}
}

func TestConfig_Validate_EmptyAllowedOrigins(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.AllowedOrigins = []string{}

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for empty CORS_ALLOWED_ORIGINS")
	}
	if !strings.Contains(err.Error(), "CORS_ALLOWED_ORIGINS") {
		t.Errorf("expected error to mention CORS_ALLOWED_ORIGINS, got: %v", err)
	}
}

func TestConfig_Validate_MissingMongoURI(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Database.URI = ""

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for missing MONGO_URI")
	}
	if !strings.Contains(err.Error(), "MONGO_URI") {
		t.Errorf("expected error to mention MONGO_URI, got: %v", err)
	}
}

func TestConfig_Validate_BadMongoScheme(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Database.URI = "postgres://localhost:5432"

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for non-mongodb URI scheme")
	}
	if !strings.Contains(err.Error(), "MONGO_URI") {
		t.Errorf("expected error to mention MONGO_URI, got: %v", err)
	}
}

func TestConfig_Validate_SRVSchemeAccepted(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Database.URI = "mongodb+srv://cluster0.example.mongodb.net"

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected mongodb+srv URI to validate, got: %v", err)
	}
}

func TestConfig_Validate_InvalidJWTExpiration(t *testing.T) {
	cfg := validBaseConfig()
	cfg.JWT.ExpirationMins = 0

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for zero JWT_EXPIRATION_MINS")
	}
	if !strings.Contains(err.Error(), "JWT_EXPIRATION_MINS") {
		t.Errorf("expected error to mention JWT_EXPIRATION_MINS, got: %v", err)
	}
}

func TestConfig_Validate_ProductionRequiresJWTSecret(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Env = "production"
	cfg.JWT.Secret = ""

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for missing JWT secret in production")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("expected error to mention JWT_SECRET, got: %v", err)
	}
}

func TestConfig_Validate_DevelopmentAllowsEmptyJWTSecret(t *testing.T) {
	cfg := validBaseConfig()
	cfg.JWT.Secret = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no error in development without JWT secret, got: %v", err)
	}
}

func TestConfig_Validate_DiscordEnabledRequiresToken(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Discord.Enabled = true
	cfg.Discord.BotToken = ""
	cfg.Discord.AppID = ""

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error when Discord enabled without credentials")
	}
	if !strings.Contains(err.Error(), "DISCORD_BOT_TOKEN") {
		t.Errorf("expected error to mention DISCORD_BOT_TOKEN, got: %v", err)
	}
	if !strings.Contains(err.Error(), "DISCORD_APP_ID") {
		t.Errorf("expected error to mention DISCORD_APP_ID, got: %v", err)
	}
}

func TestConfig_Validate_DiscordDisabledNoTokenRequired(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Discord.Enabled = false
	cfg.Discord.BotToken = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no error when Discord disabled, got: %v", err)
	}
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           "",
			Env:            "invalid",
			AllowedOrigins: []string{},
		},
		Database: DatabaseConfig{
			URI: "",
		},
		JWT: JWTConfig{
			ExpirationMins: 0,
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Error("expected multiple validation errors")
	}

	errStr := err.Error()
	expectedFields := []string{"SERVER_PORT", "SERVER_ENV", "CORS_ALLOWED_ORIGINS", "MONGO_URI", "MONGO_DATABASE", "JWT_EXPIRATION_MINS"}
	for _, field := range expectedFields {
		if !strings.Contains(errStr, field) {
			t.Errorf("expected error to mention %s, got: %v", field, err)
		}
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Env: "development"}}
	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment() to return true")
	}

	cfg.Server.Env = "production"
	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment() to return false in production")
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Env: "production"}}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction() to return true")
	}

	cfg.Server.Env = "development"
	if cfg.IsProduction() {
		t.Error("expected IsProduction() to return false in development")
	}
}

// validBaseConfig returns a minimal valid configuration for testing
func validBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Env:            "development",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "questboard",
			ConnectTimeout: 10 * time.Second,
			QueryTimeout:   5 * time.Second,
		},
		JWT: JWTConfig{
			Secret:         "test-secret",
			ExpirationMins: 60,
			Issuer:         "questboard.ravenhall.gg",
		},
		Discord: DiscordConfig{
			Enabled: false,
		},
	}
}
