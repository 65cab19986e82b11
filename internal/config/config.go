package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port         string
	GinMode      string
	DBDriver     string // postgres or memory
	DSN          string
	JWTSecret    []byte
	TokenTTL     time.Duration
	Location     *time.Location
	SessionCache string // memory or redis
	RedisURL     string
	BlobDir      string
	BlobBaseURL  string
	CORSOrigins  []string
}

// Load reads configs/.env when present and then the process environment
func Load(envFile string) (*Config, error) {
	_ = godotenv.Load(envFile)

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Asia/Jakarta"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	ginMode := getEnv("GIN_MODE", "debug")
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if ginMode == "release" {
			return nil, fmt.Errorf("JWT_SECRET is required in release mode")
		}
		secret = "default_super_secret_key"
	}

	cacheKind := getEnv("SESSION_CACHE", "memory")
	if cacheKind != "memory" && cacheKind != "redis" {
		return nil, fmt.Errorf("invalid SESSION_CACHE %q: must be memory or redis", cacheKind)
	}

	driver := getEnv("DB_DRIVER", "postgres")
	if driver != "postgres" && driver != "memory" {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: must be postgres or memory", driver)
	}

	port := getEnv("PORT", "8080")
	if _, err := strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	dsn := "postgres://" + getEnv("DB_USER", "postgres") + ":" + getEnv("DB_PASSWORD", "postgres") +
		"@" + getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "5432") +
		"/" + getEnv("DB_NAME", "absensi") + "?sslmode=" + getEnv("DB_SSLMODE", "disable")

	return &Config{
		Port:         port,
		GinMode:      ginMode,
		DBDriver:     driver,
		DSN:          dsn,
		JWTSecret:    []byte(secret),
		TokenTTL:     ttl,
		Location:     loc,
		SessionCache: cacheKind,
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),
		BlobDir:      getEnv("BLOB_DIR", "./data/blobs"),
		BlobBaseURL:  strings.TrimRight(getEnv("BLOB_BASE_URL", "http://localhost:"+port+"/files"), "/"),
		CORSOrigins:  parseCSVEnv("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseCSVEnv(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
