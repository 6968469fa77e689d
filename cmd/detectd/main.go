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
	"docsentry/internal/detect"
	"docsentry/internal/llm/openai"
	"docsentry/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()

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
	} else {
		logger.Warn("no API key configured, running pattern rules only")
	}

	engine := detect.NewEngine(detect.NewPatternExtractor(logger), model, logger)
	app := server.NewDetectApp(logger, engine)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("detection server starting", "addr", cfg.Server.DetectAddr)
		if err := app.Listen(cfg.Server.DetectAddr); err != nil {
			logger.Error("detection server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
}
