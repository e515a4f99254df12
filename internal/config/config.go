package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverMemory = "memory"
	StoreDriverRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	// BackendURL is the base address of the attendance scraping service.
	BackendURL string
	// HTTPTimeout bounds each backend call. Zero means no timeout.
	HTTPTimeout time.Duration

	ServerPort  string
	GinMode     string
	LogLevel    string
	LogFormat   string
	RedisURL    string
	StoreDriver string
	SessionTTL  time.Duration
	JWTSecret   string
	// AllowedOrigins controls HTTP CORS.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins     []string
	RateLimitPerMinute int
	// RecomputePercent makes aggregation derive each subject's percentage
	// from its present/total counts instead of trusting the backend field.
	RecomputePercent bool
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		BackendURL:         strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5001"), "/"),
		HTTPTimeout:        time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 0)) * time.Second,
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "pretty"),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		StoreDriver:        getEnv("STORE_DRIVER", StoreDriverMemory),
		SessionTTL:         time.Duration(getEnvPositiveInt("SESSION_TTL_MINUTES", 5)) * time.Minute,
		JWTSecret:          getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		AllowedOrigins:     parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 20),
		RecomputePercent:   getEnvBool("RECOMPUTE_PERCENT", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvPositiveInt is getEnvInt for values where zero or below is meaningless.
func getEnvPositiveInt(key string, fallback int) int {
	if n := getEnvInt(key, fallback); n > 0 {
		return n
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
