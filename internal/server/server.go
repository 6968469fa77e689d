package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"docsentry/internal/export"
	"docsentry/internal/ingest"
	"docsentry/internal/metrics"
	"docsentry/internal/pipeline"
	"docsentry/internal/repository"
	"docsentry/internal/storage"
)

// Deps carries everything the HTTP API needs.
type Deps struct {
	Logger    *slog.Logger
	Pool      *pgxpool.Pool
	Docs      repository.DocumentRepository
	Blobs     storage.Storage
	Ingest    *ingest.Service
	Export    *export.Service
	Processor *pipeline.Processor
}

// NewApp builds the document API.
func NewApp(deps Deps) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
		BodyLimit:    64 << 20,
	})

	app.Use(RequestID())
	app.Use(RequestLogger(deps.Logger))
	app.Use(metrics.Middleware())

	registerRoutes(app, deps)
	return app
}

func registerRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Pool != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := PingDB(ctx, deps.Pool, deps.Logger, 2*time.Second); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	h := &documentHandlers{deps: deps}
	app.Post("/documents", h.upload)
	app.Get("/documents", h.list)
	app.Get("/documents/:id", h.get)
	app.Delete("/documents/:id", h.remove)
	app.Post("/documents/:id/reanalyze", h.reanalyze)
	app.Get("/documents/:id/findings.xlsx", h.exportFindings)
}
