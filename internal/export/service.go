package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"docsentry/internal/common"
	"docsentry/internal/repository"
)

// Service produces XLSX bytes for document findings.
type Service struct {
	docs   repository.DocumentRepository
	logger *slog.Logger
}

func NewService(docs repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger}
}

// ExportFindingsXLSX returns an XLSX workbook listing every detected item
// of one document. The document must have a completed analysis.
func (s *Service) ExportFindingsXLSX(ctx context.Context, docID uuid.UUID) ([]byte, error) {
	start := time.Now()

	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.AnalysisResult == nil {
		return nil, common.ValidationError("document has not been analyzed")
	}

	f := excelize.NewFile()
	const sheet = "Findings"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defaultIndex, _ := f.GetSheetIndex("Sheet1"); defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Document",
		"Uploaded At",
		"Analysis Status",
		"Category",
		"Label",
		"Value",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, item := range doc.AnalysisResult.DetectedItems {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, doc.OriginalFilename)
		write(2, doc.UploadedAt.Format("2006-01-02 15:04"))
		write(3, string(doc.AnalysisResult.Status))
		write(4, string(item.Category))
		write(5, item.Label)
		write(6, item.Value)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 36) // filename
	_ = f.SetColWidth(sheet, "B", "B", 18) // uploaded at
	_ = f.SetColWidth(sheet, "C", "C", 16) // status
	_ = f.SetColWidth(sheet, "D", "D", 14) // category
	_ = f.SetColWidth(sheet, "E", "E", 20) // label
	_ = f.SetColWidth(sheet, "F", "F", 48) // value

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"document_id", docID.String(),
		"rows", len(doc.AnalysisResult.DetectedItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
