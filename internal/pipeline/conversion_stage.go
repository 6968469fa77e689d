package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"docsentry/constants"
	"docsentry/internal/convert"
	"docsentry/internal/entity"
	"docsentry/internal/repository"
	"docsentry/internal/storage"
)

// maxPersistedError bounds error strings written onto document records.
const maxPersistedError = 500

// ConversionStage streams the original blob to the conversion service and
// persists the outcome. Every failure is a status write on the document,
// never an error to the caller.
type ConversionStage struct {
	Logger    *slog.Logger
	Docs      repository.DocumentRepository
	Blobs     storage.Storage
	Converter convert.Converter
}

func NewConversionStage(logger *slog.Logger, docs repository.DocumentRepository, blobs storage.Storage, conv convert.Converter) *ConversionStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversionStage{Logger: logger, Docs: docs, Blobs: blobs, Converter: conv}
}

// Run converts one document. Returns the normalized text (nil when the
// document converted but produced none) and whether conversion completed.
func (s *ConversionStage) Run(ctx context.Context, doc *entity.DocumentRecord, startedAt time.Time) (*string, bool) {
	if doc.ObjectKey == "" {
		s.fail(ctx, doc, startedAt, "Storage error: document has no stored object")
		return nil, false
	}

	rc, _, err := s.Blobs.Get(ctx, doc.ObjectKey)
	if err != nil {
		s.fail(ctx, doc, startedAt, fmt.Sprintf("Storage error: %v", err))
		return nil, false
	}
	defer func() {
		if err := rc.Close(); err != nil {
			s.Logger.Warn("pipeline.conversion.blob_close_error", "document_id", doc.ID, "error", err)
		}
	}()

	res, err := s.Converter.Convert(ctx, doc.OriginalFilename, resolveContentType(doc), rc)
	if err != nil {
		s.fail(ctx, doc, startedAt, err.Error())
		return nil, false
	}

	now := time.Now().UTC()
	status := constants.ConversionCompleted
	upd := entity.DocumentUpdate{
		ConversionStatus: &status,
		ConvertedAt:      &now,
		Metadata:         res.Metadata,
	}
	var text *string
	if res.Text != nil && strings.TrimSpace(*res.Text) != "" {
		text = res.Text
		upd.NormalizedText = res.Text
	}
	if err := s.Docs.Update(ctx, doc.ID, upd); err != nil {
		s.Logger.Error("pipeline.conversion.status_write_failed", "document_id", doc.ID, "error", err)
	}

	s.Logger.Info("pipeline.conversion.ok",
		"document_id", doc.ID,
		"has_text", text != nil,
		"elapsed_ms", time.Since(startedAt).Milliseconds(),
	)
	return text, true
}

func (s *ConversionStage) fail(ctx context.Context, doc *entity.DocumentRecord, startedAt time.Time, msg string) {
	msg = truncateError(msg)
	s.Logger.Error("pipeline.conversion.failed", "document_id", doc.ID, "error", msg)

	status := constants.ConversionFailed
	total := time.Since(startedAt).Seconds()
	upd := entity.DocumentUpdate{
		ConversionStatus:      &status,
		ConversionError:       &msg,
		ProcessingTimeSeconds: &total,
	}
	if err := s.Docs.Update(ctx, doc.ID, upd); err != nil {
		s.Logger.Error("pipeline.conversion.status_write_failed", "document_id", doc.ID, "error", err)
	}
}

// resolveContentType falls back to an extension-based guess when the stored
// content type is missing or is a bare extension rather than a MIME type.
func resolveContentType(doc *entity.DocumentRecord) string {
	ct := strings.TrimSpace(doc.ContentType)
	if ct != "" && strings.Contains(ct, "/") {
		return ct
	}
	ext := doc.OriginalFormat
	if ext == "" {
		ext = filepath.Ext(doc.OriginalFilename)
	}
	return constants.ContentTypeForExt(ext)
}
