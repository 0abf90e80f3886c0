package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                string
	DatabaseURL         string
	JWTSecret           string
	Environment         string
	SeedAdminEmail      string
	SeedAdminPassword   string
	RunMigrations       bool
	RunSeed             bool
	MaxBodyBytes        int64
	TokenTTL            time.Duration
	BulkChunkSize       int
	CompletionSchedule  string
	MetricsEnabled      bool
	MaxAttachmentBytes  int64
	MaxAttachmentsPerOp int
}

func Load() Config {
	// .env is optional; deployments usually set the environment directly.
	_ = godotenv.Load()

	return Config{
		Addr:                getEnv("APP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		Environment:         getEnv("APP_ENV", "development"),
		SeedAdminEmail:      getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:   getEnv("SEED_ADMIN_PASSWORD", ""),
		RunMigrations:       getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:             getEnvBool("RUN_SEED", true),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		TokenTTL:            getEnvDuration("TOKEN_TTL", 12*time.Hour),
		BulkChunkSize:       getEnvInt("BULK_CHUNK_SIZE", 100),
		CompletionSchedule:  getEnv("COMPLETION_SCHEDULE", "0 0 2 * * *"),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", true),
		MaxAttachmentBytes:  int64(getEnvInt("MAX_ATTACHMENT_BYTES", 2*1024*1024)),
		MaxAttachmentsPerOp: getEnvInt("MAX_ATTACHMENTS_PER_OP", 5),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.BulkChunkSize <= 0 {
		return fmt.Errorf("BULK_CHUNK_SIZE must be positive")
	}
	if c.MaxAttachmentBytes <= 0 || c.MaxAttachmentsPerOp <= 0 {
		return fmt.Errorf("attachment limits must be positive")
	}
	return nil
}
