package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"docsentry/internal/common"
	"docsentry/internal/entity"
)

// DocumentRepository is the persistence boundary for document records.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.DocumentRecord) (*entity.DocumentRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.DocumentRecord, error)
	GetByContentHash(ctx context.Context, hash string) (*entity.DocumentRecord, error)
	Update(ctx context.Context, id uuid.UUID, upd entity.DocumentUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]entity.DocumentRecord, error)
}

const documentColumns = `id, original_filename, original_format, uploader_email, uploaded_at,
	content_hash, object_key, content_type, size, conversion_status, conversion_error,
	converted_at, normalized_text, metadata, analysis_result, processing_time_seconds`

// DocumentPostgres implements DocumentRepository on database/sql with
// parameterized queries and no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *entity.DocumentRecord) (*entity.DocumentRecord, error) {
	metadata, analysis, err := marshalJSONFields(doc.Metadata, doc.AnalysisResult)
	if err != nil {
		return nil, err
	}

	q := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.OriginalFilename,
		doc.OriginalFormat,
		doc.UploaderEmail,
		doc.UploadedAt,
		doc.ContentHash,
		doc.ObjectKey,
		doc.ContentType,
		doc.Size,
		doc.ConversionStatus,
		doc.ConversionError,
		doc.ConvertedAt,
		doc.NormalizedText,
		metadata,
		analysis,
		doc.ProcessingTimeSeconds,
	)
	return scanDocument(row)
}

// GetByID fetches a single document by its ID.
func (r *DocumentPostgres) GetByID(ctx context.Context, id uuid.UUID) (*entity.DocumentRecord, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFoundError(fmt.Sprintf("document %s", id))
		}
		return nil, err
	}
	return doc, nil
}

// GetByContentHash returns the first document with the given content hash,
// or a NotFound error.
func (r *DocumentPostgres) GetByContentHash(ctx context.Context, hash string) (*entity.DocumentRecord, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE content_hash = $1 ORDER BY uploaded_at ASC LIMIT 1`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, q, hash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFoundError("document by content hash")
		}
		return nil, err
	}
	return doc, nil
}

// Update applies the non-nil fields of upd. A zero update is a no-op.
func (r *DocumentPostgres) Update(ctx context.Context, id uuid.UUID, upd entity.DocumentUpdate) error {
	if upd.IsZero() {
		return nil
	}

	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.ConversionStatus != nil {
		add("conversion_status", *upd.ConversionStatus)
	}
	if upd.ConversionError != nil {
		add("conversion_error", *upd.ConversionError)
	}
	if upd.ConvertedAt != nil {
		add("converted_at", *upd.ConvertedAt)
	}
	if upd.NormalizedText != nil {
		add("normalized_text", *upd.NormalizedText)
	}
	if upd.Metadata != nil {
		b, err := json.Marshal(upd.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		add("metadata", b)
	}
	if upd.AnalysisResult != nil {
		b, err := json.Marshal(upd.AnalysisResult)
		if err != nil {
			return fmt.Errorf("marshal analysis result: %w", err)
		}
		add("analysis_result", b)
	}
	if upd.ProcessingTimeSeconds != nil {
		add("processing_time_seconds", *upd.ProcessingTimeSeconds)
	}

	args = append(args, id)
	q := fmt.Sprintf("UPDATE documents SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return common.NotFoundError(fmt.Sprintf("document %s", id))
	}
	return nil
}

// Delete removes a document row.
func (r *DocumentPostgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return common.NotFoundError(fmt.Sprintf("document %s", id))
	}
	return nil
}

// List returns documents newest first with LIMIT/OFFSET pagination.
func (r *DocumentPostgres) List(ctx context.Context, limit, offset int) ([]entity.DocumentRecord, error) {
	q := `SELECT ` + documentColumns + ` FROM documents ORDER BY uploaded_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]entity.DocumentRecord, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*entity.DocumentRecord, error) {
	var doc entity.DocumentRecord
	var metadata, analysis []byte
	if err := row.Scan(
		&doc.ID,
		&doc.OriginalFilename,
		&doc.OriginalFormat,
		&doc.UploaderEmail,
		&doc.UploadedAt,
		&doc.ContentHash,
		&doc.ObjectKey,
		&doc.ContentType,
		&doc.Size,
		&doc.ConversionStatus,
		&doc.ConversionError,
		&doc.ConvertedAt,
		&doc.NormalizedText,
		&metadata,
		&analysis,
		&doc.ProcessingTimeSeconds,
	); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		var m entity.Metadata
		if err := json.Unmarshal(metadata, &m); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		doc.Metadata = &m
	}
	if len(analysis) > 0 {
		var a entity.AnalysisResult
		if err := json.Unmarshal(analysis, &a); err != nil {
			return nil, fmt.Errorf("unmarshal analysis result: %w", err)
		}
		doc.AnalysisResult = &a
	}
	return &doc, nil
}

func marshalJSONFields(m *entity.Metadata, a *entity.AnalysisResult) ([]byte, []byte, error) {
	var metadata, analysis []byte
	var err error
	if m != nil {
		if metadata, err = json.Marshal(m); err != nil {
			return nil, nil, fmt.Errorf("marshal metadata: %w", err)
		}
	}
	if a != nil {
		if analysis, err = json.Marshal(a); err != nil {
			return nil, nil, fmt.Errorf("marshal analysis result: %w", err)
		}
	}
	return metadata, analysis, nil
}
