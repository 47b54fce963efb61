package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultFrontendOrigins are the local web and mobile dev servers
const DefaultFrontendOrigins = "http://localhost:5173,http://127.0.0.1:5173,http://localhost:5174,http://127.0.0.1:5174,http://localhost:3000"

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	FrontendOrigins  []string
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	RateLimit        string
	EnableHSTS       bool

	Location      *time.Location
	DayEnd        string
	MinGap        time.Duration
	RetrainDelay  time.Duration
	DLQGCInterval time.Duration
	DLQRetention  time.Duration

	ModelSeed           uint64
	ModelTrees          int
	ModelReloadInterval time.Duration

	CalendarID        string
	CalendarTokenFile string
	CalendarCacheTTL  time.Duration

	OpenAIKey string
	AIModel   string
	AIBaseURL string

	WorkerDebugMode bool
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Load reads an optional .env file and then configuration from environment
// variables. Variables already set in the environment win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	e := env(getenv)
	cfg := &Config{
		DatabaseURL:      e.getEnv("DATABASE_URL", ""),
		ServerPort:       e.getEnv("SERVER_PORT", "8000"),
		FrontendOrigins:  e.getEnvList("FRONTEND_URL", DefaultFrontendOrigins),
		RedisURL:         e.getEnv("REDIS_URL", ""),
		RabbitMQURL:      e.getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: e.getEnvInt("RABBITMQ_PREFETCH", 1),
		RateLimit:        e.getEnv("RATE_LIMIT", "100-M"),
		EnableHSTS:       e.getEnvBool("ENABLE_HSTS", false),

		DayEnd:        e.getEnv("DAY_END", "22:00"),
		MinGap:        time.Duration(e.getEnvInt("MIN_GAP_MINUTES", 15)) * time.Minute,
		RetrainDelay:  e.getEnvDuration("RETRAIN_DEBOUNCE", 5*time.Second),
		DLQGCInterval: e.getEnvDuration("DLQ_GC_INTERVAL", time.Hour),
		DLQRetention:  e.getEnvDuration("DLQ_RETENTION", 7*24*time.Hour),

		ModelSeed:           e.getEnvUint64("MODEL_SEED", 42),
		ModelTrees:          e.getEnvInt("MODEL_TREES", 100),
		ModelReloadInterval: e.getEnvDuration("MODEL_RELOAD_INTERVAL", time.Minute),

		CalendarID:        e.getEnv("CALENDAR_ID", "primary"),
		CalendarTokenFile: e.getEnv("CALENDAR_TOKEN_FILE", ""),
		CalendarCacheTTL:  e.getEnvDuration("CALENDAR_CACHE_TTL", 2*time.Minute),

		OpenAIKey: e.getEnv("OPENAI_API_KEY", ""),
		AIModel:   e.getEnv("AI_MODEL", ""),
		AIBaseURL: e.getEnv("AI_BASE_URL", ""),

		WorkerDebugMode: e.getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode: e.getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:     e.getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    e.getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	loc, err := time.LoadLocation(e.getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if _, err := time.Parse("15:04", cfg.DayEnd); err != nil {
		return nil, fmt.Errorf("invalid DAY_END %q: expected HH:MM", cfg.DayEnd)
	}
	if cfg.MinGap <= 0 {
		return nil, fmt.Errorf("MIN_GAP_MINUTES must be positive")
	}
	if cfg.ModelTrees <= 0 {
		return nil, fmt.Errorf("MODEL_TREES must be positive")
	}

	return cfg, nil
}

// CalendarEnabled reports whether a Google Calendar token is configured
func (c *Config) CalendarEnabled() bool {
	return c.CalendarTokenFile != ""
}

// PlannerEnabled reports whether the planning assistant has credentials
func (c *Config) PlannerEnabled() bool {
	return c.OpenAIKey != ""
}

type env func(string) string

func (e env) getEnv(key, defaultValue string) string {
	if value := e(key); value != "" {
		return value
	}
	return defaultValue
}

func (e env) getEnvBool(key string, defaultValue bool) bool {
	if value := e(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func (e env) getEnvInt(key string, defaultValue int) int {
	if value := e(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (e env) getEnvUint64(key string, defaultValue uint64) uint64 {
	if value := e(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func (e env) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := e(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping blanks
func (e env) getEnvList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(e.getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
