package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Storage    StorageConfig
	Feed       FeedConfig
	Server     ServerConfig
	Conversion ConversionConfig
	Detection  DetectionConfig
	LLM        LLMConfig
	Ingest     IngestConfig
	Notify     NotifyConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// StorageConfig holds object storage configuration (MinIO / S3-compatible).
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// FeedConfig holds the event feed configuration.
type FeedConfig struct {
	URL     string
	Subject string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr       string
	DetectAddr string
}

// ConversionConfig holds the external conversion service configuration.
type ConversionConfig struct {
	URL     string
	Timeout time.Duration
}

// DetectionConfig holds the detection service configuration. An empty URL
// means the pipeline runs the engine in-process.
type DetectionConfig struct {
	URL     string
	Timeout time.Duration
}

// LLMConfig holds model-backed extractor configuration
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
	MaxAttempts int
	RatePerMin  int
}

// IngestConfig holds watch-folder ingestion configuration.
type IngestConfig struct {
	WatchDirs     []string
	DebounceDelay time.Duration
}

// NotifyConfig holds webhook notification configuration.
type NotifyConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "documents"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
		Feed: FeedConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Subject: getEnv("FEED_SUBJECT", "documents.created"),
		},
		Server: ServerConfig{
			Addr:       getEnv("HTTP_ADDR", ":8080"),
			DetectAddr: getEnv("DETECT_ADDR", ":8085"),
		},
		Conversion: ConversionConfig{
			URL:     getEnv("CONVERSION_URL", ""),
			Timeout: getEnvAsDuration("CONVERSION_TIMEOUT", 30*time.Second),
		},
		Detection: DetectionConfig{
			URL:     getEnv("DETECTION_URL", ""),
			Timeout: getEnvAsDuration("DETECTION_TIMEOUT", 120*time.Second),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			MaxAttempts: getEnvAsInt("OPENAI_MAX_ATTEMPTS", 3),
			RatePerMin:  getEnvAsInt("OPENAI_RATE_PER_MIN", 60),
		},
		Ingest: IngestConfig{
			WatchDirs:     getEnvAsSlice("WATCH_DIRS"),
			DebounceDelay: getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			Timeout:    getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError(KindValidation, "DB_URL is required", ErrInvalidInput)
	}
	if c.Conversion.URL == "" {
		return NewAppError(KindValidation, "CONVERSION_URL is required", ErrInvalidInput)
	}
	if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
		return NewAppError(KindValidation, "MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required", ErrInvalidInput)
	}
	if c.Detection.Timeout <= c.Conversion.Timeout {
		return NewAppError(KindValidation, "DETECTION_TIMEOUT must exceed CONVERSION_TIMEOUT", ErrInvalidInput)
	}
	return nil
}
