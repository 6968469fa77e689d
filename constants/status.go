package constants

// ConversionStatus is the canonical conversion state stored on a document.
type ConversionStatus string

// Stable values (store these exact strings in DB).
const (
	ConversionPending   ConversionStatus = "pending"   // awaiting conversion
	ConversionCompleted ConversionStatus = "completed" // normalized text persisted
	ConversionFailed    ConversionStatus = "failed"    // terminal failure
)

// AnalysisStatus is the canonical detection state stored inside AnalysisResult.
type AnalysisStatus string

const (
	AnalysisNotStarted AnalysisStatus = "not_started" // conversion not finished yet
	AnalysisPending    AnalysisStatus = "pending"     // detection in flight
	AnalysisCompleted  AnalysisStatus = "completed"   // items persisted
	AnalysisFailed     AnalysisStatus = "failed"      // terminal failure
	AnalysisSkipped    AnalysisStatus = "skipped"     // nothing to analyze (empty text)
)
