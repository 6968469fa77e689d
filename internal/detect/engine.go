package detect

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"docsentry/internal/entity"
)

// Engine combines the pattern and model extractors and merges their output.
type Engine struct {
	pattern Extractor
	model   Extractor
	logger  *slog.Logger
}

// NewEngine wires the extractors. model may be nil (pattern-only mode).
func NewEngine(pattern, model Extractor, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{pattern: pattern, model: model, logger: logger}
}

// Detect scans text from all sources. A failing source degrades to an
// empty contribution; Detect errors only when text yields no result from
// any source because every extractor failed.
func (e *Engine) Detect(ctx context.Context, text string) ([]entity.DetectedItem, error) {
	if strings.TrimSpace(text) == "" {
		return []entity.DetectedItem{}, nil
	}
	start := time.Now()

	var all []Finding
	var patternErr, modelErr error

	if e.model != nil {
		modelFindings, err := e.model.Extract(ctx, text)
		if err != nil {
			modelErr = err
			e.logger.Error("detect.engine.model_error", "error", err)
		} else {
			all = append(all, modelFindings...)
		}
	}

	patternFindings, err := e.pattern.Extract(ctx, text)
	if err != nil {
		patternErr = err
		e.logger.Error("detect.engine.pattern_error", "error", err)
	} else {
		all = append(all, patternFindings...)
	}

	if patternErr != nil && (e.model == nil || modelErr != nil) {
		return nil, patternErr
	}

	items := Merge(all)
	e.logger.Info("detect.engine.done",
		"text_len", len(text),
		"raw_findings", len(all),
		"items", len(items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return items, nil
}
