package detect

import (
	"context"

	"docsentry/constants"
	"docsentry/internal/entity"
)

// Source tags where a finding came from. Sources never leave the engine;
// the merge strips them before results cross any boundary.
type Source string

const (
	SourcePattern Source = "pattern"
	SourceModel   Source = "model"
)

// Finding is the internal working form of a detected item.
type Finding struct {
	Category constants.Category
	Value    string
	Label    string
	Source   Source
}

// Extractor produces findings from normalized text.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]Finding, error)
}

// Detector is the interface the pipeline depends on. Implemented by the
// in-process Engine and by the HTTP Client for the remote service.
type Detector interface {
	Detect(ctx context.Context, text string) ([]entity.DetectedItem, error)
}
