package ingest

import (
	"io"
	"path/filepath"
	"strings"

	"docsentry/constants"
	"docsentry/internal/entity"
)

// UploadRequest carries one document into the system, whether it arrived
// over HTTP or from a watched directory.
type UploadRequest struct {
	Filename      string
	ContentType   string
	UploaderEmail string
	Source        string // "api" or "watch"
	Content       io.Reader
}

// UploadResult is the ingest outcome. Deduplicated means an identical
// document already existed; no new record or feed event was produced.
type UploadResult struct {
	Document     *entity.DocumentRecord
	Deduplicated bool
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// AllowedExt checks if a file extension is in the accepted set.
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
