package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"docsentry/internal/common"
	"docsentry/internal/export"
	"docsentry/internal/feed"
	"docsentry/internal/ingest"
	repo "docsentry/internal/repository"
	"docsentry/internal/server"
	"docsentry/internal/storage"
)

// scan ingests every matching document under a directory tree and exits.
// The running pipeline picks the documents up through the feed.
func main() {
	_ = godotenv.Load()

	root := flag.String("dir", "", "directory to scan (required)")
	skipHidden := flag.Bool("skip-hidden", true, "skip hidden files and directories")
	exportID := flag.String("export", "", "export findings XLSX for a document ID instead of scanning")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if *root == "" && *exportID == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, pool, err := server.ConnectDB(ctx, cfg.Database.DSN, logger)
	if err != nil {
		os.Exit(1)
	}
	defer server.CloseDB(db, pool, logger)

	docs := repo.NewDocumentPostgres(db)

	if *exportID != "" {
		runExport(ctx, docs, *exportID, logger)
		return
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

	publisher := feed.NewPublisher(nc, cfg.Feed.Subject, logger)
	svc := ingest.NewService(logger, docs, blobs, publisher)

	stats, err := svc.UploadDirectory(ctx, *root, *skipHidden)
	if err != nil {
		logger.Error("scan failed", "error", err)
		os.Exit(1)
	}

	// Give async publishes a moment to flush before the connection closes.
	if err := nc.FlushTimeout(2 * time.Second); err != nil {
		logger.Warn("feed flush failed", "error", err)
	}

	logger.Info("scan finished",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
}

func runExport(ctx context.Context, docs repo.DocumentRepository, rawID string, logger *slog.Logger) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		logger.Error("invalid document id", "id", rawID)
		os.Exit(2)
	}

	data, err := export.NewService(docs, logger).ExportFindingsXLSX(ctx, id)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if _, err := os.Stdout.Write(data); err != nil {
		logger.Error("write failed", "error", err)
		os.Exit(1)
	}
}
