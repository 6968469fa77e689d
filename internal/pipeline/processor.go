package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"docsentry/constants"
	"docsentry/internal/common"
	"docsentry/internal/metrics"
	"docsentry/internal/notify"
	"docsentry/internal/repository"
)

// Processor drives one document through conversion and analysis. It is the
// unit of work behind every feed event: it loads the record, runs the
// stages in order, and leaves the outcome on the document. Stage failures
// are persisted, never returned, so a poisoned document can not wedge the
// listener.
type Processor struct {
	Logger     *slog.Logger
	Docs       repository.DocumentRepository
	Conversion *ConversionStage
	Analysis   *AnalysisStage
	Notifier   notify.Notifier
}

func NewProcessor(logger *slog.Logger, docs repository.DocumentRepository, conversion *ConversionStage, analysis *AnalysisStage, notifier notify.Notifier) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:     logger,
		Docs:       docs,
		Conversion: conversion,
		Analysis:   analysis,
		Notifier:   notifier,
	}
}

// ProcessDocument runs the full pipeline for one document. It never returns
// an error: anything that goes wrong is written onto the record or logged.
func (p *Processor) ProcessDocument(ctx context.Context, docID uuid.UUID) {
	start := time.Now()
	log := p.Logger.With("document_id", docID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline.processor.panic", "panic", r)
			metrics.DocumentsProcessed.WithLabelValues("panic").Inc()
		}
	}()

	log.Info("pipeline.processor.start")

	doc, err := p.Docs.GetByID(ctx, docID)
	if err != nil {
		log.Error("pipeline.processor.load_failed", "error", err)
		metrics.DocumentsProcessed.WithLabelValues("load_failed").Inc()
		return
	}

	convStart := time.Now()
	text, ok := p.Conversion.Run(ctx, doc, start)
	metrics.StageDuration.WithLabelValues("conversion").Observe(time.Since(convStart).Seconds())
	if !ok {
		metrics.DocumentsProcessed.WithLabelValues("conversion_failed").Inc()
		p.notify(ctx, notify.Event{
			DocumentID: docID,
			Filename:   doc.OriginalFilename,
			Stage:      "conversion",
			Status:     string(constants.ConversionFailed),
		})
		return
	}

	if p.Analysis == nil || p.Analysis.Detector == nil {
		log.Info("pipeline.processor.analysis_disabled")
		metrics.DocumentsProcessed.WithLabelValues("converted_only").Inc()
		return
	}

	analysisStart := time.Now()
	status, items := p.Analysis.Run(ctx, docID, text, start)
	metrics.StageDuration.WithLabelValues("analysis").Observe(time.Since(analysisStart).Seconds())

	metrics.DocumentsProcessed.WithLabelValues(string(status)).Inc()
	if status == constants.AnalysisCompleted {
		metrics.DetectedItems.Add(float64(items))
	}

	log.Info("pipeline.processor.done",
		"analysis_status", status,
		"items", items,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	p.notify(ctx, notify.Event{
		DocumentID: docID,
		Filename:   doc.OriginalFilename,
		Stage:      "analysis",
		Status:     string(status),
		Items:      items,
	})
}

// Reanalyze re-runs detection on already-converted text. It refuses while a
// previous analysis is still pending and when the document never converted.
func (p *Processor) Reanalyze(ctx context.Context, docID uuid.UUID) (constants.AnalysisStatus, int, error) {
	doc, err := p.Docs.GetByID(ctx, docID)
	if err != nil {
		return "", 0, err
	}
	if doc.AnalysisResult != nil && doc.AnalysisResult.Status == constants.AnalysisPending {
		return "", 0, common.ConflictError("analysis already in progress")
	}
	if doc.ConversionStatus != constants.ConversionCompleted {
		return "", 0, common.ValidationError("document has not been converted")
	}
	if p.Analysis == nil || p.Analysis.Detector == nil {
		return "", 0, common.InternalError("detection is not configured")
	}

	status, items := p.Analysis.Run(ctx, docID, doc.NormalizedText, time.Now())
	return status, items, nil
}

func (p *Processor) notify(ctx context.Context, e notify.Event) {
	if p.Notifier == nil {
		return
	}
	if err := p.Notifier.Notify(ctx, e); err != nil {
		p.Logger.Warn("pipeline.processor.notify_failed", "document_id", e.DocumentID, "error", err)
	}
}
