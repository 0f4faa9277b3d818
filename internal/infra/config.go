package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// QuotaEnforcementMode controls how the quota gate maps a transient store
// failure to a decision.
type QuotaEnforcementMode string

const (
	// QuotaFailOpen allows generation when the quota check cannot be
	// completed, prioritizing availability over strict enforcement.
	QuotaFailOpen QuotaEnforcementMode = "fail_open"
	// QuotaStrict denies generation when the quota check cannot be completed.
	QuotaStrict QuotaEnforcementMode = "strict"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	ProjectsDir      string
	AllowedOrigins   []string
	DefaultLocale    string
	GeoIPDBPath      string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	CatalogPath      string
	QuotaMode        QuotaEnforcementMode
	DBMaxConns       int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		ProjectsDir:      getEnv("PROJECTS_DIR", "projects"),
		AllowedOrigins:   splitList(os.Getenv("ALLOWED_ORIGINS")),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		CatalogPath:      os.Getenv("FRAMEWORK_CATALOG_PATH"),
		QuotaMode:        QuotaEnforcementMode(getEnv("QUOTA_ENFORCEMENT_MODE", string(QuotaFailOpen))),
		DBMaxConns:       getEnvInt("DB_MAX_CONNS", 16),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	switch cfg.QuotaMode {
	case QuotaFailOpen, QuotaStrict:
	default:
		return nil, fmt.Errorf("QUOTA_ENFORCEMENT_MODE must be %q or %q", QuotaFailOpen, QuotaStrict)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
