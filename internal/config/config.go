// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage drivers accepted by RECIPEKEEPER_STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Blob drivers accepted by RECIPEKEEPER_BLOB_DRIVER.
const (
	BlobFilesystem = "fs"
	BlobS3         = "s3"
	BlobMemory     = "memory"
)

// Config is the full process configuration.
type Config struct {
	StorageDriver string `env:"RECIPEKEEPER_STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"RECIPEKEEPER_SQLITE_PATH" envDefault:"recipekeeper.db"`
	PostgresDSN   string `env:"RECIPEKEEPER_POSTGRES_DSN"`
	LogLevel      string `env:"RECIPEKEEPER_LOG_LEVEL" envDefault:"info"`
	Blob          BlobConfig
}

// BlobConfig selects where recipe book exports are written.
type BlobConfig struct {
	Driver string `env:"RECIPEKEEPER_BLOB_DRIVER" envDefault:"fs"`
	FSRoot string `env:"RECIPEKEEPER_BLOB_FS_ROOT" envDefault:"./blobdata"`
	S3     S3Config
}

// S3Config configures an S3 or MinIO bucket. Static credentials are
// optional; the default AWS credential chain applies when they are empty.
type S3Config struct {
	Bucket          string `env:"RECIPEKEEPER_BLOB_S3_BUCKET"`
	Region          string `env:"RECIPEKEEPER_BLOB_S3_REGION" envDefault:"us-east-1"`
	Endpoint        string `env:"RECIPEKEEPER_BLOB_S3_ENDPOINT"`
	PathStyle       bool   `env:"RECIPEKEEPER_BLOB_S3_PATH_STYLE"`
	AccessKeyID     string `env:"RECIPEKEEPER_BLOB_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"RECIPEKEEPER_BLOB_S3_SECRET_ACCESS_KEY"`
	SessionToken    string `env:"RECIPEKEEPER_BLOB_S3_SESSION_TOKEN"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv loads variables from the given files into the process
// environment without overriding values already set. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load parses and validates the configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks driver names and driver-specific requirements.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("RECIPEKEEPER_POSTGRES_DSN required for postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %s", c.StorageDriver)
	}
	switch c.Blob.Driver {
	case BlobFilesystem, BlobMemory:
	case BlobS3:
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("RECIPEKEEPER_BLOB_S3_BUCKET required for s3 driver")
		}
	default:
		return fmt.Errorf("unknown blob driver %s", c.Blob.Driver)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}
