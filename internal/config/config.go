package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config aggregates every setting the service reads from the environment.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Database DatabaseConfig
	Admin    AdminConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Database: DatabaseConfig{URL: strings.TrimSpace(os.Getenv("DATABASE_URL"))},
		Admin:    AdminConfig{Email: strings.TrimSpace(strings.ToLower(os.Getenv("ADMIN_EMAIL")))},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the Gemini backend. The temperature defaults low to
// bias toward consistent tool invocation over free creative text.
type AIConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// Enabled reports whether the required credential is present.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadAIConfig() (AIConfig, error) {
	temperature := float32(0.5)
	if raw := strings.TrimSpace(os.Getenv("GEMINI_TEMPERATURE")); raw != "" {
		val, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return AIConfig{}, fmt.Errorf("invalid GEMINI_TEMPERATURE value %q: %w", raw, err)
		}
		temperature = float32(val)
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:       getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		Temperature: temperature,
	}, nil
}

// DatabaseConfig carries the Postgres connection string; empty selects the
// in-memory adapter.
type DatabaseConfig struct {
	URL string
}

// AdminConfig designates the account allowed to read the admin report.
type AdminConfig struct {
	Email string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
