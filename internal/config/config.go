package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Backend names accepted in STORE_BACKEND.
const (
	BackendBlob     = "blob"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Port         string
	StoreBackend string

	BlobEndpoint  string
	BlobAccessKey string
	BlobSecretKey string
	BlobBucket    string
	BlobUseSSL    bool
	BlobPublicURL string

	DatabaseURL string

	AdminUsername string
	AdminPassword string

	RolloutAPIKey string
	LogLevel      string
}

// Load reads configuration from the environment, with .env support for
// local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		StoreBackend:  getEnv("STORE_BACKEND", BackendBlob),
		BlobEndpoint:  getEnv("BLOB_ENDPOINT", ""),
		BlobAccessKey: getEnv("BLOB_ACCESS_KEY", ""),
		BlobSecretKey: getEnv("BLOB_SECRET_KEY", ""),
		BlobBucket:    getEnv("BLOB_BUCKET", "catalog"),
		BlobUseSSL:    getEnv("BLOB_USE_SSL", "true") == "true",
		BlobPublicURL: getEnv("BLOB_PUBLIC_URL", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		RolloutAPIKey: getEnv("ROLLOUT_API_KEY", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	switch cfg.StoreBackend {
	case BackendBlob, BackendPostgres, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT %q", cfg.Port)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
