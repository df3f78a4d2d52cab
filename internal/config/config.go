package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Host    string
	Port    string
	Version string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Storage
	UploadDir         string
	MaxFileSize       int64
	MaxFilesPerUpload int

	// HTTP
	CORSOrigins          string
	RateLimitWindow      time.Duration
	RateLimitMaxRequests int

	// Observability (optional)
	SentryDSN string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Local Storage Bucket"),
		AppEnv:  envString("APP_ENV", "development"),
		Host:    envString("HOST", "0.0.0.0"),
		Port:    envString("PORT", "3001"),
		Version: envString("APP_VERSION", "1.0.0"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/storage.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Storage
		UploadDir:         envString("UPLOAD_DIR", "./uploads"),
		MaxFileSize:       envInt64("MAX_FILE_SIZE", 100<<20), // 100MB
		MaxFilesPerUpload: envInt("MAX_FILES_PER_UPLOAD", 10),

		// HTTP
		CORSOrigins:          envString("CORS_ORIGINS", "*"),
		RateLimitWindow:      envDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMaxRequests: envInt("RATE_LIMIT_MAX_REQUESTS", 100),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
	}

	return cfg
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
