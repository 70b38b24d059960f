package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Backend  BackendConfig
	Pipeline PipelineConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
	Auth     AuthConfig
	Notify   NotifyConfig
	Seed     SeedConfig
}

type ServerConfig struct {
	Host                    string
	Port                    int
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	IdleTimeout             time.Duration
	GracefulShutdownTimeout time.Duration
	AllowedOrigins          []string
}

type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	// Requests per minute allowed per client on mutating endpoints
	WriteLimitPerMinute int
	ForecastCacheTTL    time.Duration
}

// BackendConfig points at the upstream weather backend
type BackendConfig struct {
	URL         string
	Timeout     time.Duration
	RateLimit   float64
	DefaultCity string
	UserAgent   string
}

type PipelineConfig struct {
	AutoRefresh bool
	Interval    time.Duration
	WorkerCount int
}

type LoggingConfig struct {
	Level  string
	Format string // json or text
	File   string // optional rotating log file
}

type MetricsConfig struct {
	Enabled bool
	Port    int
	Path    string
}

type AuthConfig struct {
	RequireAPIKeys bool
	KeyHeader      string // default: Authorization Bearer <key>
	// Comma separated keyID:bcryptHash pairs
	APIKeyHashes map[string]string
}

type NotifyConfig struct {
	SlackWebhookURL string
	SlackChannel    string
}

type SeedConfig struct {
	UseSeedAlerts bool
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:                    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:                    getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:             getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:            getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:             getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			GracefulShutdownTimeout: getEnvDuration("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:          getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", 1*time.Hour),
			MaxConnIdleTime: getEnvDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:                 getEnv("REDIS_URL", ""),
			Password:            getEnv("REDIS_PASSWORD", ""),
			DB:                  getEnvInt("REDIS_DB", 0),
			WriteLimitPerMinute: getEnvInt("RATE_LIMIT_WRITES_PER_MINUTE", 60),
			ForecastCacheTTL:    getEnvDuration("FORECAST_CACHE_TTL", 10*time.Minute),
		},
		Backend: BackendConfig{
			URL:         getEnv("BACKEND_URL", "http://localhost:5000"),
			Timeout:     getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),
			RateLimit:   getEnvFloat("BACKEND_RATE_LIMIT", 5.0),
			DefaultCity: getEnv("DEFAULT_CITY", "Mumbai"),
			UserAgent:   getEnv("BACKEND_USER_AGENT", "WeatherEngine-Maritime/1.0"),
		},
		Pipeline: PipelineConfig{
			AutoRefresh: getEnvBool("ALERTS_AUTO_REFRESH", false),
			Interval:    getEnvDuration("ALERTS_REFRESH_INTERVAL", 5*time.Minute),
			WorkerCount: getEnvInt("PIPELINE_WORKER_COUNT", 2),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Port:    getEnvInt("METRICS_PORT", 9090),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Auth: AuthConfig{
			RequireAPIKeys: getEnvBool("AUTH_REQUIRE_API_KEYS", false),
			KeyHeader:      getEnv("AUTH_KEY_HEADER", "Authorization"),
			APIKeyHashes:   getEnvPairs("AUTH_API_KEY_HASHES"),
		},
		Notify: NotifyConfig{
			SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
			SlackChannel:    getEnv("SLACK_CHANNEL", ""),
		},
		Seed: SeedConfig{
			UseSeedAlerts: getEnvBool("SEED_ALERTS", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}
	if c.Pipeline.WorkerCount < 1 {
		return fmt.Errorf("pipeline worker count must be at least 1")
	}
	if c.Pipeline.Interval <= 0 {
		return fmt.Errorf("alert refresh interval must be positive")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}
	if c.Backend.RateLimit <= 0 {
		return fmt.Errorf("backend rate limit must be positive")
	}
	if u, err := url.Parse(c.Backend.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend url: %q", c.Backend.URL)
	}
	if c.Auth.RequireAPIKeys && len(c.Auth.APIKeyHashes) == 0 {
		return fmt.Errorf("api keys required but AUTH_API_KEY_HASHES is empty")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvPairs parses "a:x,b:y" into a map. The value may itself contain
// colons, so only the first one separates key from value.
func getEnvPairs(key string) map[string]string {
	out := map[string]string{}
	for _, item := range getEnvList(key, nil) {
		k, v, ok := strings.Cut(item, ":")
		if !ok || k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
