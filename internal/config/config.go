package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docker/go-units"
	"github.com/pelletier/go-toml/v2"
)

// Supported backend drivers.
const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	StorageDriverMinIO = "minio"
	StorageDriverLocal = "local"
	StorageDriverAzure = "azblob"

	ScanFailOpen   = "open"
	ScanFailClosed = "closed"
)

// DatabaseConfig holds metadata store connection settings.
type DatabaseConfig struct {
	Driver             string `toml:"driver"`
	Host               string `toml:"host"`
	Port               string `toml:"port"`
	User               string `toml:"user"`
	Password           string `toml:"password"`
	Name               string `toml:"name"`
	SSLMode            string `toml:"sslmode"`
	SQLitePath         string `toml:"sqlite_path"`
	MaxOpenConns       int    `toml:"max_open_conns"`
	MaxIdleConns       int    `toml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `toml:"conn_max_lifetime_sec"`
	AutoMigrate        bool   `toml:"auto_migrate"`
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseSSL    bool   `toml:"use_ssl"`
}

// LocalStorageConfig holds settings for the filesystem object store.
type LocalStorageConfig struct {
	BasePath string `toml:"base_path"`
	// PublicPath is the URL prefix the blobs are served under.
	PublicPath string `toml:"public_path"`
}

// AzureConfig holds Azure Blob Storage settings.
type AzureConfig struct {
	ConnectionString string `toml:"connection_string"`
	Container        string `toml:"container"`
}

// StorageConfig selects and tunes the object store.
// Durations use time.ParseDuration syntax; sizes use human units ("25MB").
type StorageConfig struct {
	Driver        string `toml:"driver"`
	Timeout       string `toml:"timeout"`
	LinkExpiry    string `toml:"link_expiry"`
	MaxUploadSize string `toml:"max_upload_size"`
	TempDir       string `toml:"temp_dir"`

	timeout        time.Duration
	linkExpiry     time.Duration
	maxUploadBytes int64
}

// MaxUploadSizeBytes returns MaxUploadSize parsed by Validate.
func (c StorageConfig) MaxUploadSizeBytes() int64 {
	return c.maxUploadBytes
}

// TimeoutDuration returns Timeout parsed by Validate.
func (c StorageConfig) TimeoutDuration() time.Duration {
	return c.timeout
}

// LinkExpiryDuration returns LinkExpiry parsed by Validate.
func (c StorageConfig) LinkExpiryDuration() time.Duration {
	return c.linkExpiry
}

// ScannerConfig holds malware scanner settings.
type ScannerConfig struct {
	Enabled    bool   `toml:"enabled"`
	Address    string `toml:"address"`
	Timeout    string `toml:"timeout"`
	FailPolicy string `toml:"fail_policy"`

	timeout time.Duration
}

// TimeoutDuration returns Timeout parsed by Validate.
func (c ScannerConfig) TimeoutDuration() time.Duration {
	return c.timeout
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// PaginationConfig bounds list requests.
type PaginationConfig struct {
	DefaultLimit int `toml:"default_limit"`
	MaxLimit     int `toml:"max_limit"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from an optional TOML file, then environment variables.
// Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost          string             `toml:"app_host"`
	Port             string             `toml:"port"`
	Timezone         string             `toml:"timezone"`
	UploadRatePerMin int                `toml:"upload_rate_per_min"`
	Log              LogConfig          `toml:"log"`
	Database         DatabaseConfig     `toml:"database"`
	Storage          StorageConfig      `toml:"storage"`
	MinIO            MinIOConfig        `toml:"minio"`
	Local            LocalStorageConfig `toml:"local"`
	Azure            AzureConfig        `toml:"azure"`
	Scanner          ScannerConfig      `toml:"scanner"`
	Pagination       PaginationConfig   `toml:"pagination"`
}

// Location resolves Timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func defaults() *AppConfig {
	return &AppConfig{
		AppHost:  "localhost:8080",
		Port:     "8080",
		Timezone: "UTC",
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Driver:             DBDriverPostgres,
			Port:               "5432",
			SSLMode:            "disable",
			SQLitePath:         "data/docvault.db",
			MaxOpenConns:       10,
			MaxIdleConns:       5,
			ConnMaxLifetimeSec: 300,
			AutoMigrate:        true,
		},
		Storage: StorageConfig{
			Driver:        StorageDriverMinIO,
			Timeout:       "30s",
			LinkExpiry:    "15m",
			MaxUploadSize: "25MB",
		},
		Local: LocalStorageConfig{
			BasePath:   "data/blobs",
			PublicPath: "/files",
		},
		Azure: AzureConfig{
			Container: "documents",
		},
		Scanner: ScannerConfig{
			Enabled:    false,
			Address:    "tcp://localhost:3310",
			Timeout:    "30s",
			FailPolicy: ScanFailOpen,
		},
		Pagination: PaginationConfig{
			DefaultLimit: 50,
			MaxLimit:     500,
		},
	}
}

// Load reads configuration from an optional TOML file named by CONFIG_FILE, then
// environment variables. A .env file can be auto-loaded by importing:
// _ "github.com/joho/godotenv/autoload"
// Real environment variables take precedence over the file.
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	c.AppHost = getEnv("APP_HOST", c.AppHost)
	c.Port = getEnv("PORT", c.Port)
	c.Timezone = getEnv("APP_TIMEZONE", c.Timezone)
	c.UploadRatePerMin = getEnvInt("UPLOAD_RATE_PER_MIN", c.UploadRatePerMin)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.SQLitePath = getEnv("DB_SQLITE_PATH", c.Database.SQLitePath)
	c.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetimeSec = getEnvInt("DB_CONN_MAX_LIFETIME_SEC", c.Database.ConnMaxLifetimeSec)
	c.Database.AutoMigrate = getEnvBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.Timeout = getEnv("STORAGE_TIMEOUT", c.Storage.Timeout)
	c.Storage.LinkExpiry = getEnv("STORAGE_LINK_EXPIRY", c.Storage.LinkExpiry)
	c.Storage.MaxUploadSize = getEnv("MAX_UPLOAD_SIZE", c.Storage.MaxUploadSize)
	c.Storage.TempDir = getEnv("UPLOAD_TEMP_DIR", c.Storage.TempDir)

	c.MinIO.Endpoint = getEnv("MINIO_ENDPOINT", c.MinIO.Endpoint)
	c.MinIO.AccessKey = getEnv("MINIO_ACCESS_KEY", c.MinIO.AccessKey)
	c.MinIO.SecretKey = getEnv("MINIO_SECRET_KEY", c.MinIO.SecretKey)
	c.MinIO.Bucket = getEnv("MINIO_BUCKET", c.MinIO.Bucket)
	c.MinIO.UseSSL = getEnvBool("MINIO_USE_SSL", c.MinIO.UseSSL)

	c.Local.BasePath = getEnv("LOCAL_STORAGE_PATH", c.Local.BasePath)
	c.Local.PublicPath = getEnv("LOCAL_PUBLIC_PATH", c.Local.PublicPath)

	c.Azure.ConnectionString = getEnv("AZURE_STORAGE_CONNECTION_STRING", c.Azure.ConnectionString)
	c.Azure.Container = getEnv("AZURE_STORAGE_CONTAINER", c.Azure.Container)

	c.Scanner.Enabled = getEnvBool("SCAN_ENABLED", c.Scanner.Enabled)
	c.Scanner.Address = getEnv("CLAMD_ADDRESS", c.Scanner.Address)
	c.Scanner.Timeout = getEnv("SCAN_TIMEOUT", c.Scanner.Timeout)
	c.Scanner.FailPolicy = getEnv("SCAN_FAIL_POLICY", c.Scanner.FailPolicy)

	c.Pagination.DefaultLimit = getEnvInt("PAGE_DEFAULT_LIMIT", c.Pagination.DefaultLimit)
	c.Pagination.MaxLimit = getEnvInt("PAGE_MAX_LIMIT", c.Pagination.MaxLimit)
}

// Validate checks driver selections and parses derived values.
func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case StorageDriverMinIO, StorageDriverLocal, StorageDriverAzure:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}

	switch c.Scanner.FailPolicy {
	case ScanFailOpen, ScanFailClosed:
	default:
		return fmt.Errorf("unsupported SCAN_FAIL_POLICY %q", c.Scanner.FailPolicy)
	}

	size, err := units.FromHumanSize(c.Storage.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid MAX_UPLOAD_SIZE: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	c.Storage.maxUploadBytes = size

	if c.Storage.timeout, err = parseDuration("STORAGE_TIMEOUT", c.Storage.Timeout); err != nil {
		return err
	}
	if c.Storage.linkExpiry, err = parseDuration("STORAGE_LINK_EXPIRY", c.Storage.LinkExpiry); err != nil {
		return err
	}
	if c.Scanner.timeout, err = parseDuration("SCAN_TIMEOUT", c.Scanner.Timeout); err != nil {
		return err
	}

	if c.Pagination.DefaultLimit <= 0 {
		c.Pagination.DefaultLimit = 50
	}
	if c.Pagination.MaxLimit < c.Pagination.DefaultLimit {
		c.Pagination.MaxLimit = c.Pagination.DefaultLimit
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func parseDuration(name, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}
