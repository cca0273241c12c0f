// Package config holds runtime settings for the server and the CLI client.
// Values come from defaults, then environment variables (optionally loaded
// from a .env file by the command), then command-line flags.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// DevJWTSecret is the fallback signing secret. Never use it in production.
const DevJWTSecret = "dev-secret-change-me"

// Config holds server settings.
//
// Fields:
//   - Addr: listen address for the HTTP server.
//   - DBPath: SQLite database file.
//   - JWTSecret / TokenDuration: HS256 secret and session token lifetime.
//   - RedisAddr: when set, member change events go through Redis pub/sub
//     so several server instances share live updates. Empty means in-process.
//   - ShutdownTimeout: grace period for in-flight requests on SIGTERM.
type Config struct {
	Addr            string
	DBPath          string
	JWTSecret       string
	TokenDuration   time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ShutdownTimeout time.Duration
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.DBPath = "./data/bandpoints.db"
	c.JWTSecret = DevJWTSecret
	c.TokenDuration = 24 * time.Hour
	c.RedisAddr = ""
	c.RedisPassword = ""
	c.RedisDB = 0
	c.ShutdownTimeout = 10 * time.Second
}

// LoadEnv overlays environment variables onto c.
func (c *Config) LoadEnv() {
	c.Addr = getEnvOrDefault("ADDR", c.Addr)
	c.DBPath = getEnvOrDefault("DB_PATH", c.DBPath)
	c.JWTSecret = getEnvOrDefault("JWT_SECRET", c.JWTSecret)
	c.TokenDuration = getDurationOrDefault("TOKEN_DURATION", c.TokenDuration)
	c.RedisAddr = getEnvOrDefault("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnvOrDefault("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getIntOrDefault("REDIS_DB", c.RedisDB)
	c.ShutdownTimeout = getDurationOrDefault("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
}

// Load builds a Config from defaults and the environment.
func Load() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.LoadEnv()
	if cfg.JWTSecret == DevJWTSecret {
		slog.Warn("JWT_SECRET not set, using development secret")
	}
	return cfg
}

// ClientConfig holds CLI client settings.
type ClientConfig struct {
	ServerURL string
	Email     string
	Password  string
}

// LoadClient builds a ClientConfig from BANDPOINTS_* environment variables.
func LoadClient() *ClientConfig {
	return &ClientConfig{
		ServerURL: getEnvOrDefault("BANDPOINTS_SERVER", "http://localhost:8080"),
		Email:     os.Getenv("BANDPOINTS_EMAIL"),
		Password:  os.Getenv("BANDPOINTS_PASSWORD"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		slog.Warn("Ignoring invalid integer setting", "key", key, "value", value)
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("Ignoring invalid duration setting", "key", key, "value", value)
	}
	return defaultValue
}
