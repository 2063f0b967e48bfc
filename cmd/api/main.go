package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"docvault/docs"
	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/database/migration"
	handlers "docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/logger"
	"docvault/internal/otel"
	"docvault/internal/repository"
	"docvault/internal/repository/postgres"
	"docvault/internal/repository/sqlite"
	"docvault/internal/scanner"
	"docvault/internal/service"
	"docvault/internal/storage"
)

const (
	shutdownTimeout = 15 * time.Second
	// multipart framing and the text fields ride on top of the file itself.
	multipartOverhead = 1 << 20
)

// @title DocVault API
// @version 1.0
// @description Document repository: upload, search, rename, preview, download and delete PDF/DOC/DOCX files.
// @BasePath /
func main() {
	// Load configuration from an optional TOML file and environment variables (.env auto-loaded if present)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format, cfg.Location())
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	// Metadata store (PostgreSQL or embedded SQLite, pooled via database/sql)
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migration.EnsureMigrated(ctx, db, cfg.Database.Driver, log); err != nil {
			return err
		}
	}

	docRepo, err := newRepository(cfg.Database.Driver, db)
	if err != nil {
		return err
	}

	objStore, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	// A nil interface keeps /health from pinging a scanner that is switched off.
	var sc scanner.Scanner
	if cfg.Scanner.Enabled {
		sc = scanner.NewClamAV(cfg.Scanner.Address, cfg.Scanner.TimeoutDuration())
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svcMetrics, err := service.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("register service metrics: %w", err)
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	maxUpload := cfg.Storage.MaxUploadSizeBytes()
	docSvc := service.NewDocumentService(objStore, docRepo, sc,
		service.WithLogger(log),
		service.WithMetrics(svcMetrics),
		service.WithScanFailClosed(cfg.Scanner.FailPolicy == config.ScanFailClosed),
		service.WithMaxUploadSize(maxUpload),
		service.WithTempDir(cfg.Storage.TempDir),
		service.WithLocation(cfg.Location()),
		service.WithPageLimits(cfg.Pagination.DefaultLimit, cfg.Pagination.MaxLimit),
	)

	app := fiber.New(fiber.Config{
		AppName:      "docvault",
		ErrorHandler: handlers.ErrorHandler(log),
		BodyLimit:    int(maxUpload) + multipartOverhead,
	})

	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(log))
	app.Use(otelfiber.Middleware(
		otelfiber.WithServerName(cfg.AppHost),
		otelfiber.WithNext(func(c *fiber.Ctx) bool {
			return c.Path() == middleware.MetricsPath
		}),
	))
	app.Use(httpMetrics.Handler())

	routeCfg := handlers.RouteConfig{
		Scanner:       sc,
		UploadLimiter: middleware.NewRateLimiter(cfg.UploadRatePerMin),
		LinkExpiry:    cfg.Storage.LinkExpiryDuration(),
		Gatherer:      registry,
	}
	if cfg.Storage.Driver == config.StorageDriverLocal {
		routeCfg.LocalRoot = cfg.Local.BasePath
		routeCfg.LocalPublicPath = cfg.Local.PublicPath
	}
	handlers.RegisterRoutes(app, db, docSvc, routeCfg)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr, "db_driver", cfg.Database.Driver, "storage_driver", cfg.Storage.Driver, "scanner_enabled", cfg.Scanner.Enabled)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newRepository(driver string, db *sql.DB) (repository.DocumentRepository, error) {
	switch driver {
	case config.DBDriverSQLite:
		return sqlite.NewDocumentSQLite(db), nil
	case config.DBDriverPostgres, "":
		return postgres.NewDocumentPostgres(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
