package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/constants"
)

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	Postgres   PostgresConfig
	Prediction PredictionConfig
	Session    SessionConfig
	Logging    LoggingConfig
	Assistant  AssistantConfig
}

type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type PredictionConfig struct {
	BaseURL          string
	Timeout          time.Duration
	FailureThreshold int
	ResetTimeout     time.Duration
	DashboardURL     string
}

type SessionConfig struct {
	IdleTTL           time.Duration
	SweepInterval     time.Duration
	SnapshotTTL       time.Duration
	MaxClarifications int
	FlushConcurrency  int
}

type LoggingConfig struct {
	Level  string
	File   string
	Format string
}

type AssistantConfig struct {
	Prefix string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("SERVER_ADDR", ":8080"),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  parseCommaSeparated(getEnv("SERVER_ALLOWED_ORIGINS", "")),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Enabled:  getEnvBool("POSTGRES_ENABLED", false),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "assistant"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "smartagrimarket"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Prediction: PredictionConfig{
			BaseURL:          getEnv("PREDICTION_API_URL", "http://localhost:5000"),
			Timeout:          getEnvDuration("PREDICTION_API_TIMEOUT", 10*time.Second),
			FailureThreshold: getEnvInt("PREDICTION_BREAKER_THRESHOLD", constants.CircuitBreakerConfig.FailureThreshold),
			ResetTimeout:     getEnvDuration("PREDICTION_BREAKER_RESET", constants.CircuitBreakerConfig.ResetTimeout),
			DashboardURL:     getEnv("DASHBOARD_URL", ""),
		},
		Session: SessionConfig{
			IdleTTL:           getEnvDuration("SESSION_IDLE_TTL", constants.SessionConfig.IdleTTL),
			SweepInterval:     getEnvDuration("SESSION_SWEEP_INTERVAL", constants.SessionConfig.SweepInterval),
			SnapshotTTL:       getEnvDuration("SESSION_SNAPSHOT_TTL", constants.SessionConfig.SnapshotTTL),
			MaxClarifications: getEnvInt("SESSION_MAX_CLARIFICATIONS", 0),
			FlushConcurrency:  getEnvInt("SESSION_FLUSH_CONCURRENCY", constants.SessionConfig.FlushConcurrency),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			File:   getEnv("LOG_FILE", ""),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Assistant: AssistantConfig{
			Prefix: getEnv("ASSISTANT_PREFIX", "/"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("SERVER_ADDR is required")
	}
	if c.Prediction.BaseURL == "" {
		return fmt.Errorf("PREDICTION_API_URL is required")
	}
	if c.Prediction.FailureThreshold <= 0 {
		return fmt.Errorf("PREDICTION_BREAKER_THRESHOLD must be positive")
	}
	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.Session.MaxClarifications < 0 {
		return fmt.Errorf("SESSION_MAX_CLARIFICATIONS must not be negative")
	}
	if c.Session.FlushConcurrency <= 0 {
		return fmt.Errorf("SESSION_FLUSH_CONCURRENCY must be positive")
	}
	if c.Postgres.Enabled && c.Postgres.Database == "" {
		return fmt.Errorf("POSTGRES_DB is required when POSTGRES_ENABLED is set")
	}
	return nil
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90s") or plain seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
