package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"docsentry/constants"
	"docsentry/internal/common"
	"docsentry/internal/detect"
	"docsentry/internal/entity"
	"docsentry/internal/repository"
)

// noTextMessage is persisted on documents that converted but produced no
// analyzable text.
const noTextMessage = "No text from conversion"

// AnalysisStage runs sensitive-data detection on converted text and writes
// the result back onto the document record. Like the conversion stage it
// never surfaces errors: every outcome becomes a status write.
type AnalysisStage struct {
	Logger   *slog.Logger
	Docs     repository.DocumentRepository
	Detector detect.Detector
}

func NewAnalysisStage(logger *slog.Logger, docs repository.DocumentRepository, detector detect.Detector) *AnalysisStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisStage{Logger: logger, Docs: docs, Detector: detector}
}

// Run analyzes one document and returns the terminal analysis status plus
// the number of detected items.
func (s *AnalysisStage) Run(ctx context.Context, docID uuid.UUID, text *string, startedAt time.Time) (constants.AnalysisStatus, int) {
	if text == nil || strings.TrimSpace(*text) == "" {
		msg := noTextMessage
		s.Logger.Info("pipeline.analysis.skipped", "document_id", docID, "reason", msg)
		s.writeResult(ctx, docID, entity.AnalysisResult{
			Status:        constants.AnalysisSkipped,
			Timestamp:     time.Now().UTC(),
			Error:         &msg,
			DetectedItems: []entity.DetectedItem{},
		}, startedAt)
		return constants.AnalysisSkipped, 0
	}

	s.writeResult(ctx, docID, entity.AnalysisResult{
		Status:        constants.AnalysisPending,
		Timestamp:     time.Now().UTC(),
		DetectedItems: []entity.DetectedItem{},
	}, startedAt)

	detectStart := time.Now()
	items, err := s.Detector.Detect(ctx, *text)
	analysisTime := time.Since(detectStart).Seconds()

	if err != nil {
		msg := truncateError(err.Error())
		s.Logger.Error("pipeline.analysis.failed", "document_id", docID, "error", msg)
		s.writeResult(ctx, docID, entity.AnalysisResult{
			Status:              constants.AnalysisFailed,
			Timestamp:           time.Now().UTC(),
			Error:               &msg,
			DetectedItems:       []entity.DetectedItem{},
			AnalysisTimeSeconds: &analysisTime,
		}, startedAt)
		return constants.AnalysisFailed, 0
	}

	if items == nil {
		items = []entity.DetectedItem{}
	}
	s.Logger.Info("pipeline.analysis.ok",
		"document_id", docID,
		"items", len(items),
		"analysis_seconds", analysisTime,
	)
	s.writeResult(ctx, docID, entity.AnalysisResult{
		Status:              constants.AnalysisCompleted,
		Timestamp:           time.Now().UTC(),
		DetectedItems:       items,
		AnalysisTimeSeconds: &analysisTime,
	}, startedAt)
	return constants.AnalysisCompleted, len(items)
}

func (s *AnalysisStage) writeResult(ctx context.Context, docID uuid.UUID, res entity.AnalysisResult, startedAt time.Time) {
	upd := entity.DocumentUpdate{AnalysisResult: &res}
	if res.Status != constants.AnalysisPending {
		total := time.Since(startedAt).Seconds()
		upd.ProcessingTimeSeconds = &total
	}
	if err := s.Docs.Update(ctx, docID, upd); err != nil {
		s.Logger.Error("pipeline.analysis.status_write_failed", "document_id", docID, "error", err)
	}
}

func truncateError(msg string) string {
	return common.Truncate(msg, maxPersistedError)
}
