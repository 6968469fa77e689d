package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docsentry/constants"
	"docsentry/internal/common"
	"docsentry/internal/entity"
	"docsentry/internal/feed"
	"docsentry/internal/metrics"
	"docsentry/internal/repository"
	"docsentry/internal/storage"
)

// maxUploadBytes caps a single document upload.
const maxUploadBytes = 50 << 20

// Service handles document ingestion: validation, content hashing,
// object storage, record creation and the feed event that starts the
// pipeline.
type Service struct {
	logger *slog.Logger
	docs   repository.DocumentRepository
	blobs  storage.Storage
	feed   feed.Publisher
}

func NewService(logger *slog.Logger, docs repository.DocumentRepository, blobs storage.Storage, publisher feed.Publisher) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, docs: docs, blobs: blobs, feed: publisher}
}

// Upload ingests one document. An identical document (same content hash)
// short-circuits: the existing record is returned and no event is
// published.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	logger := s.logger
	if rid := common.RequestIDFromContext(ctx); rid != "" {
		logger = logger.With("request_id", rid)
	}

	filename := strings.TrimSpace(req.Filename)
	v := common.NewValidator().
		Field("filename", filename, common.Required, common.MaxLen(255)).
		Field("uploader_email", req.UploaderEmail, common.OptionalEmail)
	if err := common.ValidateAndReturnError(v); err != nil {
		return UploadResult{}, err
	}
	ext := constants.NormalizeExt(filepath.Ext(filename))
	if !AllowedExt(ext) {
		return UploadResult{}, common.ValidationErrorf("unsupported file extension %q", ext)
	}

	var buf bytes.Buffer
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(&buf, h), io.LimitReader(req.Content, maxUploadBytes+1))
	if err != nil {
		return UploadResult{}, common.InternalErrorf("read upload: %v", err)
	}
	if n == 0 {
		return UploadResult{}, common.ValidationError("file is empty")
	}
	if n > maxUploadBytes {
		return UploadResult{}, common.ValidationError("file exceeds the upload size limit")
	}
	hash := hex.EncodeToString(h.Sum(nil))

	existing, err := s.docs.GetByContentHash(ctx, hash)
	if err == nil {
		logger.Info("ingest.deduplicated",
			"filename", filename,
			"content_hash", hash,
			"document_id", existing.ID,
		)
		return UploadResult{Document: existing, Deduplicated: true}, nil
	}
	if common.KindOf(err) != common.KindNotFound {
		return UploadResult{}, err
	}

	now := time.Now().UTC()
	id := uuid.New()
	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" || !strings.Contains(contentType, "/") {
		contentType = constants.ContentTypeForExt(ext)
	}
	key := fmt.Sprintf("documents/%s/%s.%s", now.Format("2006/01"), id, ext)

	if _, err := s.blobs.Put(ctx, key, &buf, storage.PutObjectOptions{
		Size:        n,
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": filename},
	}); err != nil {
		return UploadResult{}, common.InternalErrorf("store document: %v", err)
	}

	doc := &entity.DocumentRecord{
		ID:               id,
		OriginalFilename: filename,
		OriginalFormat:   ext,
		UploaderEmail:    strings.TrimSpace(req.UploaderEmail),
		UploadedAt:       now,
		ContentHash:      hash,
		ObjectKey:        key,
		ContentType:      contentType,
		Size:             n,
		ConversionStatus: constants.ConversionPending,
		AnalysisResult: &entity.AnalysisResult{
			Status:        constants.AnalysisNotStarted,
			Timestamp:     now,
			DetectedItems: []entity.DetectedItem{},
		},
	}
	created, err := s.docs.Create(ctx, doc)
	if err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Error("ingest.rollback_failed", "object_key", key, "error", delErr)
		}
		return UploadResult{}, err
	}

	if s.feed != nil {
		if err := s.feed.PublishDocumentCreated(ctx, created.ID); err != nil {
			// The record exists; processing just won't start until a
			// reanalyze or manual kick. Surfacing this as an upload
			// failure would double-store on retry.
			s.logger.Error("ingest.feed_publish_failed", "document_id", created.ID, "error", err)
		}
	}

	source := req.Source
	if source == "" {
		source = "api"
	}
	metrics.DocumentsIngested.WithLabelValues(source).Inc()

	logger.Info("ingest.stored",
		"document_id", created.ID,
		"filename", filename,
		"size", n,
		"source", source,
	)
	return UploadResult{Document: created}, nil
}

// UploadFile ingests a file from the local filesystem, used by the
// directory watcher and the scan command.
func (s *Service) UploadFile(ctx context.Context, path, source string) (UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadResult{}, common.InternalErrorf("open %s: %v", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("ingest.file_close_error", "path", path, "error", err)
		}
	}()

	return s.Upload(ctx, UploadRequest{
		Filename: filepath.Base(path),
		Source:   source,
		Content:  f,
	})
}

// UploadDirectory walks root and ingests every matching file. Hidden files
// and directories are skipped when skipHidden is set.
func (s *Service) UploadDirectory(ctx context.Context, root string, skipHidden bool) (DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return DirStats{}, common.ValidationError("root path is required")
	}

	var stats DirStats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if skipHidden && path != root && IsHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		stats.Scanned++
		if skipHidden && IsHidden(path) {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		res, err := s.UploadFile(ctx, path, "scan")
		switch {
		case err != nil:
			stats.Failed++
			s.logger.Warn("ingest.scan_file_failed", "path", path, "error", err)
		case res.Deduplicated:
			stats.Deduplicated++
		default:
			stats.Succeeded++
		}
		return nil
	})
	if err != nil {
		return stats, common.InternalErrorf("walk %s: %v", root, err)
	}

	s.logger.Info("ingest.scan_done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return stats, nil
}
