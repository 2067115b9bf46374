// Package config provides unified configuration for the SocialWave services.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage types for snapshot images.
const (
	StorageLocal  = "local"
	StorageS3     = "s3"
	StorageSQLite = "sqlite"
)

// Config holds the unified configuration for the SocialWave services.
type Config struct {
	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// HTTP configuration
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// Snapshot image configuration
	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot"`

	// Storage configuration for snapshot images
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Registry service configuration
	Registry RegistryConfig `json:"registry" yaml:"registry"`

	// Log configuration
	Log LogConfig `json:"log" yaml:"log"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	// Addr is the HTTP listen address
	Addr string `json:"addr" yaml:"addr"`

	// ReadTimeout is the HTTP read timeout
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the HTTP write timeout
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the HTTP idle timeout
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown, including the final drain
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// SnapshotConfig holds snapshot image configuration.
type SnapshotConfig struct {
	// KeyPrefix is the object key prefix for images
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`

	// Retention is the number of history images to keep
	Retention int `json:"retention" yaml:"retention"`

	// Compress enables snappy compression of image sections
	Compress bool `json:"compress" yaml:"compress"`

	// ExportConcurrency bounds parallel store exports during a drain
	ExportConcurrency int `json:"export_concurrency" yaml:"export_concurrency"`
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3, sqlite
	Type string `json:"type" yaml:"type"`

	// Path is the local directory (local type) or database file (sqlite type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing (MinIO, LocalStack)
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`
}

// RegistryConfig holds registry service configuration.
type RegistryConfig struct {
	// TrendSchedule is a cron spec for trend detection; empty disables it
	TrendSchedule string `json:"trend_schedule" yaml:"trend_schedule"`

	// SeedTrends replaces the default topics reported by trend detection
	SeedTrends []TrendSeed `json:"seed_trends" yaml:"seed_trends"`
}

// TrendSeed is one topic reported by the static trend detector.
type TrendSeed struct {
	Topic    string   `json:"topic" yaml:"topic"`
	Score    float64  `json:"score" yaml:"score"`
	Momentum float64  `json:"momentum" yaml:"momentum"`
	Category string   `json:"category" yaml:"category"`
	Sources  []string `json:"sources" yaml:"sources"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is a zerolog level name (debug, info, warn, error)
	Level string `json:"level" yaml:"level"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/socialwave",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Snapshot: SnapshotConfig{
			KeyPrefix:         "snapshots",
			Retention:         5,
			Compress:          true,
			ExportConcurrency: 4,
		},
		Storage: StorageConfig{
			Type: StorageLocal,
			Path: "",
		},
		Registry: RegistryConfig{
			TrendSchedule: "",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/socialwave"
	}

	if c.Storage.Path == "" {
		switch c.Storage.Type {
		case StorageSQLite:
			c.Storage.Path = filepath.Join(c.DataDir, "snapshots.db")
		default:
			c.Storage.Path = filepath.Join(c.DataDir, "storage")
		}
	}

	if c.Snapshot.KeyPrefix == "" {
		c.Snapshot.KeyPrefix = "snapshots"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	switch c.Storage.Type {
	case StorageLocal, StorageS3, StorageSQLite:
	default:
		return fmt.Errorf("invalid storage type: %s (must be local, s3, or sqlite)", c.Storage.Type)
	}

	if c.Storage.Type == StorageS3 && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	if c.Snapshot.Retention < 0 {
		return fmt.Errorf("snapshot.retention must not be negative, got %d", c.Snapshot.Retention)
	}

	if c.Snapshot.ExportConcurrency < 1 {
		return fmt.Errorf("snapshot.export_concurrency must be at least 1, got %d", c.Snapshot.ExportConcurrency)
	}

	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the SOCIALWAVE_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("SOCIALWAVE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// HTTP configuration
	if v := os.Getenv("SOCIALWAVE_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("SOCIALWAVE_HTTP_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ShutdownTimeout = d
		}
	}

	// Snapshot configuration
	if v := os.Getenv("SOCIALWAVE_SNAPSHOT_KEY_PREFIX"); v != "" {
		cfg.Snapshot.KeyPrefix = v
	}
	if v := os.Getenv("SOCIALWAVE_SNAPSHOT_RETENTION"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Snapshot.Retention)
	}
	if v := os.Getenv("SOCIALWAVE_SNAPSHOT_COMPRESS"); v != "" {
		cfg.Snapshot.Compress = v == "true" || v == "1"
	}

	// Storage configuration
	if v := os.Getenv("SOCIALWAVE_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("SOCIALWAVE_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("SOCIALWAVE_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("SOCIALWAVE_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("SOCIALWAVE_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("SOCIALWAVE_S3_USE_PATH_STYLE"); v != "" {
		cfg.Storage.S3.UsePathStyle = v == "true" || v == "1"
	}

	// Registry configuration
	if v := os.Getenv("SOCIALWAVE_TREND_SCHEDULE"); v != "" {
		cfg.Registry.TrendSchedule = v
	}

	if v := os.Getenv("SOCIALWAVE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	switch c.Storage.Type {
	case StorageLocal:
		dirs = append(dirs, c.Storage.Path)
	case StorageSQLite:
		dirs = append(dirs, filepath.Dir(c.Storage.Path))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
