package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"docvault/internal/config"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// EnsureMigrated applies every pending up migration for the given driver.
// It is safe to call on every start: an up-to-date schema is a no-op.
// The caller keeps ownership of db.
func EnsureMigrated(ctx context.Context, db *sql.DB, driver string, logger *slog.Logger) error {
	start := time.Now()
	log := logger.With("component", "database", "db_driver", driver)

	log.Info("checking schema", "event", "db_migration_check", "status", "starting")

	m, release, err := newMigrator(ctx, db, driver)
	if err != nil {
		log.Error("migration setup failed",
			"event", "db_migration_failed",
			"status", "error",
			"error_message", err.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}
	defer release()

	before, _, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", verr)
	}

	// migrate has no context support; GracefulStop lets a cancelled start abort between steps.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("schema already up to date, skipping migration",
			"event", "db_migration_skip",
			"status", "success",
			"version", before,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}
	if err != nil {
		log.Error("migration failed",
			"event", "db_migration_failed",
			"status", "error",
			"error_message", err.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("migrate up: %w", err)
	}

	after, _, _ := m.Version()
	log.Info("schema migrated",
		"event", "db_migration_success",
		"status", "success",
		"from_version", before,
		"to_version", after,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func newMigrator(ctx context.Context, db *sql.DB, driver string) (*migrate.Migrate, func(), error) {
	dir := "migrations/postgres"
	if driver == config.DBDriverSQLite {
		dir = "migrations/sqlite"
	}

	src, err := iofs.New(migrations, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("migration source: %w", err)
	}

	var (
		drv     database.Driver
		release = func() { _ = src.Close() }
	)

	switch driver {
	case config.DBDriverSQLite:
		drv, err = sqlite.WithInstance(db, &sqlite.Config{})
	case config.DBDriverPostgres, "":
		// A dedicated connection keeps the advisory lock on one session; closing
		// the driver would otherwise close the shared pool.
		conn, cerr := db.Conn(ctx)
		if cerr != nil {
			release()
			return nil, nil, fmt.Errorf("migration connection: %w", cerr)
		}
		drv, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
		release = func() {
			_ = src.Close()
			_ = conn.Close()
		}
	default:
		err = fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("migration driver: %w", err)
	}

	dbName := "postgres"
	if driver == config.DBDriverSQLite {
		dbName = "sqlite"
	}
	m, err := migrate.NewWithInstance("iofs", src, dbName, drv)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, release, nil
}
