package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/benvon/focus-board/internal/similarity"
	"github.com/benvon/focus-board/internal/staging"
)

// Config holds application configuration
type Config struct {
	DatabaseURL    string
	ServerPort     string
	FrontendURL    string
	EnableHSTS     bool
	RateLimit      string
	MaxRequestSize int64
	RequestTimeout time.Duration
	DebugMode      bool
	LogFormat      string

	RedisURL         string
	SnapshotInterval time.Duration
	SnapshotTTL      time.Duration

	RabbitMQURL      string
	RabbitMQPrefetch int
	DLQRetention     time.Duration
	DLQGCInterval    time.Duration

	OpenAIKey string
	AIModel   string
	AIBaseURL string

	CalendarCredentialsFile string
	CalendarTokenFile       string
	CalendarID              string

	StagingMaxItems           int
	StagingDuplicateDetection bool
	StagingDuplicateThreshold float64
	StagingAutoEnhance        bool
	EnhancementRulesPath      string

	OTELEnabled     bool
	OTELEndpoint    string
	OTELInsecure    bool
	OTELSampleRatio float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:     getEnvBool("ENABLE_HSTS", false),
		RateLimit:      getEnv("RATE_LIMIT", "100-M"),
		MaxRequestSize: int64(getEnvInt("MAX_REQUEST_SIZE", 1<<20)),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		DebugMode:      getEnvBool("DEBUG", false),
		LogFormat:      getEnv("LOG_FORMAT", "json"),

		RedisURL:         getEnv("REDIS_URL", ""),
		SnapshotInterval: getEnvDuration("STAGING_SNAPSHOT_INTERVAL", 30*time.Second),
		SnapshotTTL:      getEnvDuration("STAGING_SNAPSHOT_TTL", 7*24*time.Hour),

		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		DLQRetention:     getEnvDuration("DLQ_RETENTION", 7*24*time.Hour),
		DLQGCInterval:    getEnvDuration("DLQ_GC_INTERVAL", time.Hour),

		OpenAIKey: getEnv("OPENAI_API_KEY", ""),
		AIModel:   getEnv("AI_MODEL", ""),
		AIBaseURL: getEnv("AI_BASE_URL", ""),

		CalendarCredentialsFile: getEnv("GOOGLE_CALENDAR_CREDENTIALS_FILE", ""),
		CalendarTokenFile:       getEnv("GOOGLE_CALENDAR_TOKEN_FILE", ""),
		CalendarID:              getEnv("GOOGLE_CALENDAR_ID", "primary"),

		StagingMaxItems:           getEnvInt("STAGING_MAX_ITEMS", staging.DefaultMaxItems),
		StagingDuplicateDetection: getEnvBool("STAGING_DUPLICATE_DETECTION", true),
		StagingDuplicateThreshold: getEnvFloat("STAGING_DUPLICATE_THRESHOLD", similarity.DefaultThreshold),
		StagingAutoEnhance:        getEnvBool("STAGING_AUTO_ENHANCE", true),
		EnhancementRulesPath:      getEnv("ENHANCEMENT_RULES_PATH", ""),

		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTELInsecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.StagingMaxItems <= 0 {
		return nil, fmt.Errorf("STAGING_MAX_ITEMS must be positive, got %d", cfg.StagingMaxItems)
	}
	if cfg.StagingDuplicateThreshold <= 0 || cfg.StagingDuplicateThreshold > 1 {
		return nil, fmt.Errorf("STAGING_DUPLICATE_THRESHOLD must be in (0, 1], got %v", cfg.StagingDuplicateThreshold)
	}
	if (cfg.CalendarCredentialsFile == "") != (cfg.CalendarTokenFile == "") {
		return nil, fmt.Errorf("GOOGLE_CALENDAR_CREDENTIALS_FILE and GOOGLE_CALENDAR_TOKEN_FILE must be set together")
	}

	return cfg, nil
}

// Staging returns the staging repository settings
func (c *Config) Staging() staging.Config {
	return staging.Config{
		MaxItems:           c.StagingMaxItems,
		DuplicateDetection: c.StagingDuplicateDetection,
		DuplicateThreshold: c.StagingDuplicateThreshold,
		AutoEnhance:        c.StagingAutoEnhance,
	}
}

// CalendarEnabled reports whether Google Calendar import is configured
func (c *Config) CalendarEnabled() bool {
	return c.CalendarCredentialsFile != "" && c.CalendarTokenFile != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
