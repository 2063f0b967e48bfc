package database

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/config"
)

func TestBuildDSN(t *testing.T) {
	pg := config.DatabaseConfig{Driver: config.DBDriverPostgres, Host: "db", Port: "5432", User: "vault", Name: "docvault"}
	withPg := func(mut func(*config.DatabaseConfig)) config.DatabaseConfig {
		c := pg
		mut(&c)
		return c
	}

	tests := []struct {
		name    string
		cfg     config.DatabaseConfig
		want    string
		wantErr bool
	}{
		{
			name: "postgres with password and sslmode",
			cfg: withPg(func(c *config.DatabaseConfig) {
				c.Password = "s3cret"
				c.SSLMode = "disable"
			}),
			want: "postgres://vault:s3cret@db:5432/docvault?sslmode=disable",
		},
		{
			name: "postgres password is escaped",
			cfg:  withPg(func(c *config.DatabaseConfig) { c.Password = "p@ss/word" }),
			want: "postgres://vault:p%40ss%2Fword@db:5432/docvault",
		},
		{
			name: "postgres without password",
			cfg:  withPg(func(c *config.DatabaseConfig) { c.SSLMode = "require" }),
			want: "postgres://vault@db:5432/docvault?sslmode=require",
		},
		{name: "postgres missing host", cfg: withPg(func(c *config.DatabaseConfig) { c.Host = "" }), wantErr: true},
		{name: "postgres missing port", cfg: withPg(func(c *config.DatabaseConfig) { c.Port = "" }), wantErr: true},
		{name: "postgres missing user", cfg: withPg(func(c *config.DatabaseConfig) { c.User = "" }), wantErr: true},
		{name: "postgres missing name", cfg: withPg(func(c *config.DatabaseConfig) { c.Name = "" }), wantErr: true},
		{
			name: "sqlite file gets pragmas",
			cfg:  config.DatabaseConfig{Driver: config.DBDriverSQLite, SQLitePath: "data/docvault.db"},
			want: "file:data/docvault.db?_pragma=busy_timeout%285000%29&_pragma=journal_mode%28WAL%29&_pragma=foreign_keys%281%29",
		},
		{
			name: "sqlite memory passes through",
			cfg:  config.DatabaseConfig{Driver: config.DBDriverSQLite, SQLitePath: ":memory:"},
			want: ":memory:",
		},
		{name: "sqlite missing path", cfg: config.DatabaseConfig{Driver: config.DBDriverSQLite}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			build := BuildPostgresDSN
			if tt.cfg.Driver == config.DBDriverSQLite {
				build = BuildSQLiteDSN
			}
			got, err := build(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// stubOpen swaps sqlOpen for the duration of the test.
func stubOpen(t *testing.T, db *sql.DB, err error) {
	t.Helper()
	orig := sqlOpen
	sqlOpen = func(string, string) (*sql.DB, error) { return db, err }
	t.Cleanup(func() { sqlOpen = orig })
}

func TestNewPostgres(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host: "db", Port: "5432", User: "vault", Password: "s3cret", Name: "docvault",
		MaxOpenConns: 8, MaxIdleConns: 4, ConnMaxLifetimeSec: 60,
	}

	t.Run("pings and applies pool", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		stubOpen(t, db, nil)
		mock.ExpectPing()

		got, err := NewPostgres(cfg)
		require.NoError(t, err)
		assert.Equal(t, 8, got.Stats().MaxOpenConnections)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("open failure", func(t *testing.T) {
		stubOpen(t, nil, errors.New("driver missing"))

		got, err := NewPostgres(cfg)
		assert.ErrorContains(t, err, "sql open: driver missing")
		assert.Nil(t, got)
	})

	t.Run("ping failure", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		got, err := NewPostgres(cfg)
		assert.ErrorContains(t, err, "db ping: connection refused")
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("incomplete config", func(t *testing.T) {
		got, err := NewPostgres(config.DatabaseConfig{})
		assert.Error(t, err)
		assert.Nil(t, got)
	})
}

func TestNewSQLite(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		db, err := NewSQLite(config.DatabaseConfig{Driver: config.DBDriverSQLite, SQLitePath: ":memory:"})
		require.NoError(t, err)
		defer db.Close()

		var one int
		require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
		assert.Equal(t, 1, one)
	})

	t.Run("file creates parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "docs.db")
		db, err := NewSQLite(config.DatabaseConfig{Driver: config.DBDriverSQLite, SQLitePath: path})
		require.NoError(t, err)
		defer db.Close()

		_, err = os.Stat(filepath.Dir(path))
		assert.NoError(t, err)
	})
}

func TestNewSQLite_UnicodeLower(t *testing.T) {
	db, err := NewSQLite(config.DatabaseConfig{Driver: config.DBDriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	// a second open must not fail on the already registered function
	again, err := NewSQLite(config.DatabaseConfig{Driver: config.DBDriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	defer again.Close()

	tests := []struct {
		in   any
		want sql.NullString
	}{
		{in: "ÄRZTEBERICHT", want: sql.NullString{String: "ärztebericht", Valid: true}},
		{in: "Übersicht Q1", want: sql.NullString{String: "übersicht q1", Valid: true}},
		{in: "plain", want: sql.NullString{String: "plain", Valid: true}},
		{in: nil, want: sql.NullString{}},
	}
	for _, tt := range tests {
		var got sql.NullString
		require.NoError(t, db.QueryRow("SELECT "+SQLiteLowerFunc+"(?)", tt.in).Scan(&got))
		assert.Equal(t, tt.want, got)
	}

	// built-in LOWER only folds ASCII.
	var builtin string
	require.NoError(t, db.QueryRow("SELECT LOWER('Ä')").Scan(&builtin))
	assert.Equal(t, "Ä", builtin)
}

func TestOpen_UnknownDriver(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
	assert.Nil(t, db)
}
