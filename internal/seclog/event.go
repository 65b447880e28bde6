// Package seclog implements the process-wide security event log.
//
// Every component in the ingestion pipeline reports validation failures
// and suspicious patterns here. The log is the single choke point for
// sensitive-value redaction: no event reaches a sink before its detail
// fields have been scrubbed, regardless of which component raised it.
// Recording is best-effort from the caller's perspective: a failing
// sink never fails the operation that triggered the event.
package seclog

import "time"

// Severity classifies how alarming an event is.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Well-known event types emitted by the pipeline.
const (
	EventPathRejected      = "path_rejected"
	EventInjectionDetected = "injection_detected"
	EventContentAnomaly    = "content_anomaly"
	EventFileProcessing    = "file_processing"
	EventExtractionFailed  = "extraction_failed"
	EventFormatMismatch    = "format_mismatch"
	EventResourceLimit     = "resource_limit"
	EventRateLimited       = "rate_limited"
	EventTemplateRejected  = "template_rejected"
	EventAnalysisRun       = "analysis_run"
)

// Event is a single append-only security event. Detail holds arbitrary
// structured context; sensitive keys and credential-shaped values are
// replaced with the redaction marker before the event leaves the log.
type Event struct {
	ID       string         `json:"id"`
	Type     string         `json:"event_type"`
	Severity Severity       `json:"severity"`
	Time     time.Time      `json:"time"`
	Detail   map[string]any `json:"detail,omitempty"`
}
