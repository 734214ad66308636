/**
 * Configuration for the OCR web service
 *
 * Loads configuration from environment variables matching .env
 */

package config

import (
	"fmt"
	"os"
	"strconv"
)

// LowScoreThreshold is the fixed score below which a prediction counts as low
// quality for monitoring purposes.
const LowScoreThreshold = 0.5

// Config holds service configuration
type Config struct {
	// HTTP server
	ServerAddr string

	// MinIO object storage
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// MongoDB document storage
	MongoURI        string
	MongoDB         string
	MongoCollection string

	// Redis (background task queue)
	RedisURL  string
	QueueName string

	// Worker configuration
	WorkerConcurrency int

	// Request limits
	MaxImageSize           int64
	DownloadTimeoutSeconds int

	// OCR engine
	TesseractLang string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddr:             getEnvOrDefault("SERVER_ADDR", ":8080"),
		MinioEndpoint:          getEnvOrDefault("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey:         getEnvOrDefault("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:         getEnvOrDefault("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:            getEnvOrDefault("MINIO_BUCKET", "images"),
		MinioUseSSL:            getEnvAsBoolOrDefault("MINIO_USE_SSL", false),
		MongoURI:               getEnvOrDefault("MONGO_URI", "mongodb://mongo:27017/"),
		MongoDB:                getEnvOrDefault("MONGO_DB", "doc_fraud"),
		MongoCollection:        getEnvOrDefault("MONGO_COLLECTION", "predictions"),
		RedisURL:               getEnvOrDefault("REDIS_URL", "redis://redis:6379"),
		QueueName:              getEnvOrDefault("QUEUE_NAME", "ocr:ingest"),
		WorkerConcurrency:      getEnvAsIntOrDefault("WORKER_CONCURRENCY", 10),
		MaxImageSize:           getEnvAsInt64OrDefault("MAX_IMAGE_SIZE", 33554432), // 32MB
		DownloadTimeoutSeconds: getEnvAsIntOrDefault("DOWNLOAD_TIMEOUT_SECONDS", 30),
		TesseractLang:          getEnvOrDefault("TESSERACT_LANG", "eng"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.MinioEndpoint == "" {
		return fmt.Errorf("MINIO_ENDPOINT is required")
	}

	if c.MinioBucket == "" {
		return fmt.Errorf("MINIO_BUCKET is required")
	}

	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}

	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if c.MaxImageSize < 1024 || c.MaxImageSize > 1073741824 { // 1KB to 1GB
		return fmt.Errorf("MAX_IMAGE_SIZE must be between 1KB and 1GB, got %d", c.MaxImageSize)
	}

	if c.DownloadTimeoutSeconds < 1 {
		return fmt.Errorf("DOWNLOAD_TIMEOUT_SECONDS must be positive, got %d", c.DownloadTimeoutSeconds)
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsInt64OrDefault gets environment variable as int64 or returns default
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
