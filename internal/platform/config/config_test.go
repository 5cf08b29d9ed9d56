// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/atelier/internal/platform/constants"
)

// setEnv applies a minimal embedded-store environment plus overrides.
func setEnv(t *testing.T, overrides map[string]string) {
	t.Helper()

	base := map[string]string{
		"CDN_CLOUD_NAME":      "atelier",
		"STORE_DRIVER":        StoreDriverSQLite,
		"SQLITE_PATH":         t.TempDir() + "/atelier.db",
		"STORAGE_DRIVER":      StorageDriverLocal,
		"LOCAL_STORAGE_DIR":   t.TempDir(),
		"ENVIRONMENT":         "development",
		"JWT_PUBLIC_KEY_PATH": "",
		"UPLOAD_MAX_BYTES":    "",
		"ZONE_CACHE_TTL":      "",
		"EXTRA_ORIGINS":       "",
	}
	for key, value := range overrides {
		base[key] = value
	}
	for key, value := range base {
		t.Setenv(key, value)
		if value == "" {
			require.NoError(t, os.Unsetenv(key))
		}
	}
}

func TestLoad_EmbeddedDefaults(t *testing.T) {
	setEnv(t, nil)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, constants.DefaultCDNHost, cfg.CDNHost)
	assert.Equal(t, int64(constants.DefaultUploadMaxBytes), cfg.UploadMaxBytes)
	assert.Equal(t, 5*time.Minute, cfg.ZoneCacheTTL)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
		wantErr   string
	}{
		{
			name:      "missing cloud name",
			overrides: map[string]string{"CDN_CLOUD_NAME": ""},
			wantErr:   "CDN_CLOUD_NAME",
		},
		{
			name:      "postgres without url",
			overrides: map[string]string{"STORE_DRIVER": StoreDriverPostgres, "DATABASE_URL": ""},
			wantErr:   "DATABASE_URL",
		},
		{
			name:      "unknown store",
			overrides: map[string]string{"STORE_DRIVER": "mongo"},
			wantErr:   "STORE_DRIVER",
		},
		{
			name:      "s3 without bucket",
			overrides: map[string]string{"STORAGE_DRIVER": StorageDriverS3, "S3_BUCKET": "", "S3_ENDPOINT": ""},
			wantErr:   "S3_BUCKET",
		},
		{
			name:      "unknown storage",
			overrides: map[string]string{"STORAGE_DRIVER": "ftp"},
			wantErr:   "STORAGE_DRIVER",
		},
		{
			name:      "production without operator key",
			overrides: map[string]string{"ENVIRONMENT": "production"},
			wantErr:   "JWT_PUBLIC_KEY_PATH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.overrides)

			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_FillsCeilings(t *testing.T) {
	cfg := &Config{
		StoreDriver:     StoreDriverSQLite,
		SQLitePath:      "atelier.db",
		StorageDriver:   StorageDriverLocal,
		LocalStorageDir: "originals",
		UploadMaxBytes:  -1,
	}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, int64(constants.DefaultUploadMaxBytes), cfg.UploadMaxBytes)
	assert.Equal(t, constants.DefaultZoneCacheTTL, cfg.ZoneCacheTTL)
}

func TestConfig_AllowedOrigin(t *testing.T) {
	cfg := &Config{ExtraOrigins: " https://studio.example , https://preview.example "}

	assert.True(t, cfg.AllowedOrigin("https://studio.example"))
	assert.True(t, cfg.AllowedOrigin("https://preview.example"))
	assert.False(t, cfg.AllowedOrigin("https://elsewhere.example"))
	assert.False(t, (&Config{}).AllowedOrigin(""))
}
