package analyzer

import (
	"github.com/HendryAvila/quill/internal/processors"
)

// FileDescriptor identifies one candidate file after path authorization
// and format detection. It never leaves the run that created it.
type FileDescriptor struct {
	Path     string // relative to the analyzed root, forward slashes
	AbsPath  string
	Size     int64
	Format   processors.Format
	Category string
}

// SanitizedContent is the per-file output of the pipeline: extracted
// text that has passed sanitization and is safe to embed verbatim.
type SanitizedContent struct {
	Path       string         `json:"path"`
	Format     string         `json:"format"`
	Category   string         `json:"category"`
	Text       string         `json:"text"`
	Structured map[string]any `json:"structured,omitempty"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// Rejection records one skipped file and why.
type Rejection struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Rejection reasons. Each maps onto the error class that produced it.
const (
	ReasonPathTraversal     = "path_traversal"
	ReasonInjectionDetected = "injection_detected"
	ReasonContentTooLong    = "content_too_long"
	ReasonUnsupportedFormat = "unsupported_format"
	ReasonExtractionFailed  = "extraction_failed"
	ReasonFileTooLarge      = "file_too_large"
	ReasonTimeout           = "timeout"
	ReasonUnreadable        = "unreadable"
)

// CategoryContent groups accepted files under one category.
type CategoryContent struct {
	Name  string             `json:"name"`
	Files []SanitizedContent `json:"files"`
}

// AnalysisResult is the terminal artifact of one run. Categories are
// sorted by name and files within a category by path, so identical
// input yields byte-identical results.
type AnalysisResult struct {
	RunID         string            `json:"run_id"`
	State         State             `json:"state"`
	TotalSeen     int               `json:"total_files_seen"`
	TotalAccepted int               `json:"total_files_accepted"`
	Categories    []CategoryContent `json:"categories"`
	Rejected      []Rejection       `json:"rejected"`
}

// Category returns the named category's files, or nil.
func (r *AnalysisResult) Category(name string) []SanitizedContent {
	for _, c := range r.Categories {
		if c.Name == name {
			return c.Files
		}
	}
	return nil
}

// State tracks run progress. Transitions only move forward.
type State string

const (
	StateEnumerating State = "enumerating"
	StateProcessing  State = "processing"
	StateAggregating State = "aggregating"
	StateComplete    State = "complete"
	// StatePartial marks a run cut short by the batch budget; the
	// result still carries everything accepted before the cutoff.
	StatePartial State = "partial"
)

// Uncategorized is the bucket for files directly at the analyzed root.
const Uncategorized = "uncategorized"
