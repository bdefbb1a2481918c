package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string

	// DataDir is the root of everything persisted locally: the sqlite
	// store, the question slot and generated submission copies.
	DataDir      string
	DatabasePath string
	ExportDir    string

	// DefaultDurationSeconds seeds the countdown when a question is
	// loaded. A manual time edit becomes the new default.
	DefaultDurationSeconds int

	// FontPath must point at a TTF able to render Japanese answer text.
	// Export fails hard when it cannot be loaded.
	FontPath string

	MaxUploadBytes int64

	// LawAPIBaseURL is the upstream statute service the proxy forwards to.
	LawAPIBaseURL   string
	LawFetchTimeout time.Duration
	LawCacheSize    int
	LawCacheTTL     time.Duration

	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	dataDir := getEnv("DATA_DIR", "./data")

	return &Config{
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		GinMode:                getEnv("GIN_MODE", "debug"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "pretty"),
		DataDir:                dataDir,
		DatabasePath:           getEnv("DATABASE_PATH", filepath.Join(dataDir, "cbt.db")),
		ExportDir:              getEnv("EXPORT_DIR", filepath.Join(dataDir, "exports")),
		DefaultDurationSeconds: getEnvInt("DEFAULT_DURATION_SECONDS", 7200),
		FontPath:               getEnv("FONT_PATH", filepath.Join(dataDir, "fonts", "NotoSansJP-Regular.ttf")),
		MaxUploadBytes:         int64(getEnvInt("MAX_UPLOAD_SIZE_MB", 20)) * 1024 * 1024,
		LawAPIBaseURL:          getEnv("LAW_API_BASE_URL", "https://roppou-app.onrender.com"),
		LawFetchTimeout:        time.Duration(getEnvInt("LAW_FETCH_TIMEOUT_SECONDS", 180)) * time.Second,
		LawCacheSize:           getEnvInt("LAW_CACHE_SIZE", 64),
		LawCacheTTL:            time.Duration(getEnvInt("LAW_CACHE_TTL_MINUTES", 720)) * time.Minute,
		AllowedOrigins:         parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
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
