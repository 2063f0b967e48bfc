package handler

import (
	"path"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"docvault/internal/http/middleware"
	"docvault/internal/scanner"
	"docvault/internal/service"
	"docvault/internal/storage"
)

// RouteConfig carries the optional collaborators of RegisterRoutes.
type RouteConfig struct {
	// Scanner is pinged by /health; nil when scanning is disabled.
	Scanner scanner.Scanner
	// UploadLimiter throttles POST /documents; nil disables it.
	UploadLimiter *middleware.RateLimiter
	LinkExpiry    time.Duration
	// Gatherer backs /metrics; nil leaves the route unregistered.
	Gatherer prometheus.Gatherer
	// LocalRoot and LocalPublicPath serve the filesystem store's blobs
	// when both are set.
	LocalRoot       string
	LocalPublicPath string
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay free of business logic; errors are rendered by ErrorHandler.
func RegisterRoutes(app *fiber.App, db Pinger, docSvc service.DocumentService, cfg RouteConfig) {
	app.Get("/health", HealthCheck(db, cfg.Scanner))
	app.Get("/healthz", LivenessProbe())

	if cfg.Gatherer != nil {
		app.Get(middleware.MetricsPath, middleware.MetricsHandler(cfg.Gatherer))
	}

	limiter := cfg.UploadLimiter
	if limiter != nil {
		limiter.OnLimit = func(c *fiber.Ctx) error {
			return writeError(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "too many uploads, retry later")
		}
	}

	docs := app.Group("/documents")
	docs.Get("/", ListDocuments(docSvc))
	docs.Post("/", limiter.Handler(), UploadDocument(docSvc))
	docs.Get("/:id", GetDocument(docSvc))
	docs.Put("/:id", UpdateDocument(docSvc))
	docs.Delete("/:id", DeleteDocument(docSvc))
	docs.Get("/:id/download", DownloadDocument(docSvc))
	docs.Get("/:id/preview", PreviewDocument(docSvc))
	docs.Get("/:id/link", DocumentLink(docSvc, cfg.LinkExpiry))

	if cfg.LocalRoot != "" && cfg.LocalPublicPath != "" {
		app.Static(cfg.LocalPublicPath, cfg.LocalRoot, fiber.Static{
			ByteRange: true,
			// sidecars and in-flight temp files are internal
			Next: func(c *fiber.Ctx) bool {
				p := c.Path()
				return strings.HasSuffix(p, storage.SidecarSuffix) || strings.HasPrefix(path.Base(p), ".")
			},
		})
	}
}
