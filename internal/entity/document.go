package entity

import (
	"time"

	"github.com/google/uuid"

	"docsentry/constants"
)

// DocumentRecord represents an uploaded document for data transfer between layers.
type DocumentRecord struct {
	ID                    uuid.UUID                  `json:"id"`
	OriginalFilename      string                     `json:"original_filename"`
	OriginalFormat        string                     `json:"original_format"`
	UploaderEmail         string                     `json:"uploader_email"`
	UploadedAt            time.Time                  `json:"uploaded_at"`
	ContentHash           string                     `json:"content_hash"`
	ObjectKey             string                     `json:"object_key"`
	ContentType           string                     `json:"content_type"`
	Size                  int64                      `json:"size"`
	ConversionStatus      constants.ConversionStatus `json:"conversion_status"`
	ConversionError       *string                    `json:"conversion_error,omitempty"`
	ConvertedAt           *time.Time                 `json:"converted_at,omitempty"`
	NormalizedText        *string                    `json:"normalized_text,omitempty"`
	Metadata              *Metadata                  `json:"metadata,omitempty"`
	AnalysisResult        *AnalysisResult            `json:"analysis_result,omitempty"`
	ProcessingTimeSeconds *float64                   `json:"processing_time_seconds,omitempty"`
}

// Metadata carries the descriptive fields returned by the conversion service.
type Metadata struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Date     string `json:"date"`
}

// AnalysisResult is the persisted outcome of a detection run.
type AnalysisResult struct {
	Status              constants.AnalysisStatus `json:"status"`
	Timestamp           time.Time                `json:"timestamp"`
	Error               *string                  `json:"error"`
	DetectedItems       []DetectedItem           `json:"detectedItems"`
	AnalysisTimeSeconds *float64                 `json:"analysisTime,omitempty"`
}

// DetectedItem is a single finding. Value is the verbatim matched text.
type DetectedItem struct {
	Category constants.Category `json:"type"`
	Value    string             `json:"value"`
	Label    string             `json:"label"`
}

// DocumentUpdate is a partial update: nil fields are left untouched.
type DocumentUpdate struct {
	ConversionStatus      *constants.ConversionStatus
	ConversionError       *string
	ConvertedAt           *time.Time
	NormalizedText        *string
	Metadata              *Metadata
	AnalysisResult        *AnalysisResult
	ProcessingTimeSeconds *float64
}

// IsZero reports whether the update would touch nothing.
func (u DocumentUpdate) IsZero() bool {
	return u.ConversionStatus == nil &&
		u.ConversionError == nil &&
		u.ConvertedAt == nil &&
		u.NormalizedText == nil &&
		u.Metadata == nil &&
		u.AnalysisResult == nil &&
		u.ProcessingTimeSeconds == nil
}
