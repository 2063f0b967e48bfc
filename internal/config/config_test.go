package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("MAX_UPLOAD_SIZE", "2MB")
	t.Setenv("SCAN_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, int64(2_000_000), cfg.Storage.MaxUploadSizeBytes())
	assert.Equal(t, 5*time.Second, cfg.Scanner.TimeoutDuration())
	assert.Equal(t, 15*time.Minute, cfg.Storage.LinkExpiryDuration())
	assert.Equal(t, ScanFailOpen, cfg.Scanner.FailPolicy)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docvault.toml")
	content := `
port = "9090"

[database]
driver = "sqlite"
sqlite_path = "/tmp/docs.db"

[storage]
driver = "local"
max_upload_size = "10MB"

[scanner]
enabled = true
fail_policy = "closed"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)

	// env wins over file
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, DBDriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/docs.db", cfg.Database.SQLitePath)
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.Equal(t, int64(10_000_000), cfg.Storage.MaxUploadSizeBytes())
	assert.True(t, cfg.Scanner.Enabled)
	assert.Equal(t, ScanFailClosed, cfg.Scanner.FailPolicy)
	// untouched defaults survive
	assert.Equal(t, "/files", cfg.Local.PublicPath)
}

func TestLoad_ConfigFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.toml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("port = "), 0o600))
		t.Setenv("CONFIG_FILE", path)
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *AppConfig) {}},
		{
			name:    "unknown db driver",
			mutate:  func(c *AppConfig) { c.Database.Driver = "mysql" },
			wantErr: "unsupported DB_DRIVER",
		},
		{
			name:    "unknown storage driver",
			mutate:  func(c *AppConfig) { c.Storage.Driver = "ftp" },
			wantErr: "unsupported STORAGE_DRIVER",
		},
		{
			name:    "unknown fail policy",
			mutate:  func(c *AppConfig) { c.Scanner.FailPolicy = "maybe" },
			wantErr: "unsupported SCAN_FAIL_POLICY",
		},
		{
			name:    "bad upload size",
			mutate:  func(c *AppConfig) { c.Storage.MaxUploadSize = "lots" },
			wantErr: "invalid MAX_UPLOAD_SIZE",
		},
		{
			name:    "bad duration",
			mutate:  func(c *AppConfig) { c.Storage.Timeout = "soon" },
			wantErr: "invalid STORAGE_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_PaginationBounds(t *testing.T) {
	c := defaults()
	c.Pagination.DefaultLimit = 0
	c.Pagination.MaxLimit = 10
	require.NoError(t, c.Validate())
	assert.Equal(t, 50, c.Pagination.DefaultLimit)
	assert.Equal(t, 50, c.Pagination.MaxLimit)
}

func TestLocation(t *testing.T) {
	c := defaults()
	assert.Equal(t, time.UTC, c.Location())

	c.Timezone = "Not/AZone"
	assert.Equal(t, time.UTC, c.Location())

	c.Timezone = "Asia/Jakarta"
	assert.Equal(t, "Asia/Jakarta", c.Location().String())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	t.Setenv(key, "value")

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	t.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	t.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	t.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	t.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	t.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}
