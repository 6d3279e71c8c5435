// Package config holds the application configuration. Values come from
// built-in defaults, an optional YAML file, and environment variable
// overrides, applied in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Duplicates DuplicatesConfig `yaml:"duplicates"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	EnableCORS   bool          `yaml:"enable_cors"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Type         string `yaml:"type"` // sqlite or postgres
	DatabasePath string `yaml:"database_path"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
}

// DuplicatesConfig holds tuning knobs for the duplicate detection engine
type DuplicatesConfig struct {
	// SimilarityThreshold is the minimum pairwise confidence for two
	// files to be considered near-duplicates.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	// DurationBucketSeconds controls how coarsely videos are bucketed
	// by duration before pairwise comparison.
	DurationBucketSeconds int `yaml:"duration_bucket_seconds"`
	// DimensionBucket controls how coarsely files are bucketed by
	// resolution before pairwise comparison.
	DimensionBucket int `yaml:"dimension_bucket"`
	// SampleBytes is the size of each byte range sampled for the
	// exact-match content hash.
	SampleBytes int `yaml:"sample_bytes"`
}

var (
	current *Config
	mu      sync.RWMutex
)

// Default returns the built-in configuration defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			EnableCORS:   true,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Type:         "sqlite",
			DatabasePath: "./mediakeep-data/mediakeep.db",
			Host:         "localhost",
			Port:         5432,
			Username:     "mediakeep",
			Database:     "mediakeep",
		},
		Duplicates: DuplicatesConfig{
			SimilarityThreshold:   0.85,
			DurationBucketSeconds: 10,
			DimensionBucket:       64,
			SampleBytes:           64 * 1024,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment overrides, and installs it as the active config.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	mu.Lock()
	current = cfg
	mu.Unlock()

	return cfg, nil
}

// Get returns the active configuration, loading defaults if Load was
// never called (tests and one-off tools rely on this).
func Get() *Config {
	mu.RLock()
	c := current
	mu.RUnlock()
	if c != nil {
		return c
	}

	cfg, _ := Load(os.Getenv("MEDIAKEEP_CONFIG"))
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MEDIAKEEP_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("MEDIAKEEP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_TYPE"); v != "" {
		cfg.Database.Type = v
	}
	if v := os.Getenv("MEDIAKEEP_DATABASE_PATH"); v != "" {
		cfg.Database.DatabasePath = v
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		cfg.Database.Username = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("MEDIAKEEP_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			cfg.Duplicates.SimilarityThreshold = f
		}
	}
}
