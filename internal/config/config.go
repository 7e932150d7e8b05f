package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends understood by StoreConfig.Backend.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Config aggregates runtime configuration for the asset host.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Postgres PostgresConfig
	MinIO    MinIOConfig
	Auth     AuthConfig
	Upload   UploadConfig
	Metrics  MetricsConfig
	Log      LogConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig selects the durable asset store implementation.
type StoreConfig struct {
	Backend string
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
}

// AuthConfig groups caller-identity token settings.
type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	Issuer      string
}

// UploadConfig bounds a single upload call.
type UploadConfig struct {
	MaxChunkBytes int64
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("ASSETHOST_API_HOST", "0.0.0.0"),
			Port:         getInt("ASSETHOST_API_PORT", 8080),
			ReadTimeout:  getDuration("ASSETHOST_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("ASSETHOST_API_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("ASSETHOST_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getString("ASSETHOST_STORE", StoreBackendPostgres)),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "assethost_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "assethost"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
		},
		MinIO: MinIOConfig{
			Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getString("MINIO_ROOT_USER", "assethost"),
			SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
			Bucket:          getString("MINIO_BUCKET", "assethost"),
			UseSSL:          getBool("MINIO_USE_SSL", false),
			Region:          getString("MINIO_REGION", ""),
		},
		Auth: AuthConfig{
			TokenSecret: getString("ASSETHOST_JWT_SECRET", "change-me-to-a-32-byte-secret"),
			TokenTTL:    getDuration("ASSETHOST_AUTH_TOKEN_TTL", 24*time.Hour),
			Issuer:      getString("ASSETHOST_JWT_ISSUER", "assethost"),
		},
		Upload: UploadConfig{
			MaxChunkBytes: int64(getInt("ASSETHOST_MAX_CHUNK_BYTES", 2*1024*1024)),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("ASSETHOST_METRICS_PATH", "/metrics"),
		},
		Log: LogConfig{
			Level: getString("LOG_LEVEL", "info"),
		},
	}

	switch cfg.Store.Backend {
	case StoreBackendPostgres, StoreBackendMemory:
	default:
		return Config{}, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if cfg.Upload.MaxChunkBytes <= 0 {
		return Config{}, fmt.Errorf("ASSETHOST_MAX_CHUNK_BYTES must be positive")
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
