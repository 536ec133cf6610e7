package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	ApiPort string

	// AWS S3 (chat attachments)
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	AttachmentMaxDim   int

	// Match score cache
	MatchCacheTTL time.Duration

	// Background reconciliation of review aggregates
	RatingReconcileInterval time.Duration

	// Rate Limiting Defaults
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode comes from the command-line flag and is passed in.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getEnvInt := func(key string, defaultValue int) (int, error) {
		raw, exists := os.LookupEnv(key)
		if !exists {
			return defaultValue, nil
		}
		v, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return 0, fmt.Errorf("invalid integer for %s: %q", key, raw)
		}
		return v, nil
	}

	getEnvDuration := func(key string, defaultValue time.Duration) (time.Duration, error) {
		raw, exists := os.LookupEnv(key)
		if !exists {
			return defaultValue, nil
		}
		d, convErr := time.ParseDuration(raw)
		if convErr != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q", key, raw)
		}
		return d, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "skillswap")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	if cfg.JwtTTL, err = getEnvDuration("JWT_TTL", 72*time.Hour); err != nil {
		return nil, err
	}

	cfg.ApiPort = getEnv("API_PORT", "8080")

	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "us-east-1")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	if cfg.AttachmentMaxDim, err = getEnvInt("ATTACHMENT_MAX_DIMENSION", 1600); err != nil {
		return nil, err
	}

	if cfg.MatchCacheTTL, err = getEnvDuration("MATCH_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RatingReconcileInterval, err = getEnvDuration("RATING_RECONCILE_INTERVAL", 6*time.Hour); err != nil {
		return nil, err
	}

	if cfg.RateLimitBucketSize, err = getEnvInt("RATE_LIMIT_BUCKET_SIZE", 60); err != nil {
		return nil, err
	}
	if cfg.RateLimitRefillRate, err = getEnvInt("RATE_LIMIT_REFILL_RATE", 20); err != nil {
		return nil, err
	}

	return cfg, nil
}
