package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"docsentry/internal/common"
	"docsentry/internal/convert"
	"docsentry/internal/detect"
	"docsentry/internal/export"
	"docsentry/internal/feed"
	"docsentry/internal/ingest"
	"docsentry/internal/llm/openai"
	"docsentry/internal/notify"
	"docsentry/internal/pipeline"
	repo "docsentry/internal/repository"
	"docsentry/internal/server"
	"docsentry/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, pool, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, pool, logger)

	if err := repo.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := repo.Migrate(ctx, db, logger); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	blobs, err := storage.NewMinIO(cfg.Storage)
	if err != nil {
		logger.Error("failed to initialize object storage", "error", err)
		os.Exit(1)
	}

	nc, err := feed.Connect(cfg.Feed.URL, logger)
	if err != nil {
		logger.Error("failed to connect to the feed", "error", err)
		os.Exit(1)
	}
	defer nc.Close()

	docs := repo.NewDocumentPostgres(db)
	publisher := feed.NewPublisher(nc, cfg.Feed.Subject, logger)
	ingestSvc := ingest.NewService(logger, docs, blobs, publisher)
	exportSvc := export.NewService(docs, logger)

	converter := convert.NewClient(cfg.Conversion.URL, cfg.Conversion.Timeout, logger)
	detector := buildDetector(cfg, logger)

	var notifier notify.Notifier
	if wh := notify.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.Timeout, logger); wh != nil {
		notifier = wh
	}

	conversion := pipeline.NewConversionStage(logger, docs, blobs, converter)
	var analysis *pipeline.AnalysisStage
	if detector != nil {
		analysis = pipeline.NewAnalysisStage(logger, docs, detector)
	}
	processor := pipeline.NewProcessor(logger, docs, conversion, analysis, notifier)

	listener := feed.NewListener(logger, nc, cfg.Feed.Subject, processor)
	go func() {
		if err := listener.Run(ctx); err != nil {
			logger.Error("feed listener stopped", "error", err)
			stop()
		}
	}()

	if len(cfg.Ingest.WatchDirs) > 0 {
		go func() {
			err := ingestSvc.RunWatcher(ctx, ingest.WatchConfig{
				Roots:    cfg.Ingest.WatchDirs,
				Debounce: cfg.Ingest.DebounceDelay,
			})
			if err != nil {
				logger.Error("directory watcher stopped", "error", err)
			}
		}()
	}

	app := server.NewApp(server.Deps{
		Logger:    logger,
		Pool:      pool,
		Docs:      docs,
		Blobs:     blobs,
		Ingest:    ingestSvc,
		Export:    exportSvc,
		Processor: processor,
	})

	go func() {
		logger.Info("http server starting", "addr", cfg.Server.Addr)
		if err := app.Listen(cfg.Server.Addr); err != nil {
			logger.Error("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
}

// buildDetector picks the detection backend: a remote service when
// DETECTION_URL is set, the in-process engine otherwise. Without a
// detection URL or an API key the engine still runs pattern rules alone.
func buildDetector(cfg *common.Config, logger *slog.Logger) detect.Detector {
	if cfg.Detection.URL != "" {
		return detect.NewClient(cfg.Detection.URL, cfg.Detection.Timeout, logger)
	}

	var model detect.Extractor
	if cfg.LLM.APIKey != "" {
		model = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			MaxAttempts: cfg.LLM.MaxAttempts,
			RatePerMin:  cfg.LLM.RatePerMin,
		}, logger)
	}
	return detect.NewEngine(detect.NewPatternExtractor(logger), model, logger)
}
