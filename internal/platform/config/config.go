// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, CDN builder) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/atelier/internal/platform/constants"
	"github.com/taibuivan/atelier/pkg/query"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// Storage drivers.
const (
	StorageDriverS3    = "s3"
	StorageDriverLocal = "local"
)

// # Configuration Schema

// Config holds all runtime configuration for the Atelier API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Catalog and zone store
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// SQLitePath is the database file used when StoreDriver is sqlite.
	SQLitePath string `env:"SQLITE_PATH" envDefault:"./data/atelier.db"`

	// Key-Value Cache (Redis). Empty disables the zone cache.
	RedisURL     string        `env:"REDIS_URL"`
	ZoneCacheTTL time.Duration `env:"ZONE_CACHE_TTL" envDefault:"5m"`

	// ZoneTemplatesPath replaces the built-in page templates when set.
	ZoneTemplatesPath string `env:"ZONE_TEMPLATES_PATH"`

	// Operator token verification (tokens are minted by the back-office)
	JWTPubKeyPath string `env:"JWT_PUBLIC_KEY_PATH"`

	// Image CDN
	CDNHost      string `env:"CDN_HOST"       envDefault:"res.cloudinary.com"`
	CDNCloudName string `env:"CDN_CLOUD_NAME,required"`

	// Object Storage (Cloudflare R2 / S3-compatible, or local disk)
	StorageDriver   string `env:"STORAGE_DRIVER"  envDefault:"s3"`
	S3Bucket        string `env:"S3_BUCKET"`
	S3Region        string `env:"S3_REGION"       envDefault:"auto"`
	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3AccessKey     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey     string `env:"S3_SECRET_ACCESS_KEY"`
	LocalStorageDir string `env:"LOCAL_STORAGE_DIR" envDefault:"./data/originals"`
	UploadMaxBytes  int64  `env:"UPLOAD_MAX_BYTES"  envDefault:"41943040"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field requirements that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("config: DATABASE_URL is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("config: SQLITE_PATH is required when STORE_DRIVER=%s", StoreDriverSQLite)
		}
	default:
		return fmt.Errorf("config: unsupported STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.StorageDriver {
	case StorageDriverS3:
		if c.S3Bucket == "" || c.S3Endpoint == "" {
			return fmt.Errorf("config: S3_BUCKET and S3_ENDPOINT are required when STORAGE_DRIVER=%s", StorageDriverS3)
		}
	case StorageDriverLocal:
		if strings.TrimSpace(c.LocalStorageDir) == "" {
			return fmt.Errorf("config: LOCAL_STORAGE_DIR is required when STORAGE_DRIVER=%s", StorageDriverLocal)
		}
	default:
		return fmt.Errorf("config: unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.IsProduction() && strings.TrimSpace(c.JWTPubKeyPath) == "" {
		return fmt.Errorf("config: JWT_PUBLIC_KEY_PATH is required in production")
	}

	if c.UploadMaxBytes <= 0 {
		c.UploadMaxBytes = constants.DefaultUploadMaxBytes
	}
	if c.ZoneCacheTTL <= 0 {
		c.ZoneCacheTTL = constants.DefaultZoneCacheTTL
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigin reports whether origin is listed in EXTRA_ORIGINS.
func (c *Config) AllowedOrigin(origin string) bool {
	return slices.Contains(query.StringSlice(c.ExtraOrigins), origin)
}
