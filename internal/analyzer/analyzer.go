// Package analyzer orchestrates the ingestion pipeline over a
// directory of reference files: enumerate, authorize, admit under
// budgets, extract, sanitize, aggregate. Any single file failing any
// stage is recorded as a rejection and skipped; the batch always
// finishes with a usable result.
package analyzer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/HendryAvila/quill/internal/limits"
	"github.com/HendryAvila/quill/internal/pathguard"
	"github.com/HendryAvila/quill/internal/processors"
	"github.com/HendryAvila/quill/internal/sanitize"
	"github.com/HendryAvila/quill/internal/seclog"
)

// sniffLen is how many bytes feed format detection.
const sniffLen = 512

// junkNames are artifacts that never carry reference content.
var junkNames = map[string]bool{
	"thumbs.db":   true,
	".ds_store":   true,
	"desktop.ini": true,
}

var junkExtensions = map[string]bool{
	".tmp":  true,
	".bak":  true,
	".swp":  true,
	".lock": true,
	".pyc":  true,
}

// Analyzer runs analysis over one base directory.
type Analyzer struct {
	guard     *pathguard.Guard
	registry  *processors.Registry
	sanitizer *sanitize.Sanitizer
	limiter   *limits.Limiter
	events    *seclog.Log

	// Injection points for fault testing.
	readFile func(string) ([]byte, error)
	statFile func(string) (os.FileInfo, error)
	newRunID func() string
}

// New wires an Analyzer from its collaborators.
func New(guard *pathguard.Guard, registry *processors.Registry, sanitizer *sanitize.Sanitizer, limiter *limits.Limiter, events *seclog.Log) *Analyzer {
	return &Analyzer{
		guard:     guard,
		registry:  registry,
		sanitizer: sanitizer,
		limiter:   limiter,
		events:    events,
		readFile:  os.ReadFile,
		statFile:  os.Stat,
		newRunID:  uuid.NewString,
	}
}

// Analyze enumerates the base directory and processes every candidate.
// The admission rate limit is checked once per call.
func (a *Analyzer) Analyze(ctx context.Context) (*AnalysisResult, error) {
	if err := a.limiter.AdmitRequest("analyze"); err != nil {
		return nil, err
	}
	candidates, err := a.enumerate()
	if err != nil {
		return nil, err
	}
	return a.run(ctx, candidates), nil
}

// AnalyzeFiles processes an explicit candidate list (paths relative to
// the base directory) instead of walking. Candidates are processed in
// the order given after lexicographic sorting.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, candidates []string) (*AnalysisResult, error) {
	if err := a.limiter.AdmitRequest("analyze_files"); err != nil {
		return nil, err
	}
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	return a.run(ctx, sorted), nil
}

// enumerate walks the base directory in lexicographic order, applying
// the skip rules. Hidden files and directories, and well-known junk
// artifacts, are not candidates at all and are not counted as seen.
func (a *Analyzer) enumerate() ([]string, error) {
	base := a.guard.Base()
	var candidates []string
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree: skip, keep walking
		}
		name := d.Name()
		if d.IsDir() {
			if p != base && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if skipFile(name) {
			return nil
		}
		rel, rerr := filepath.Rel(base, p)
		if rerr != nil {
			return nil
		}
		candidates = append(candidates, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(candidates)
	return candidates, nil
}

func skipFile(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, ".") {
		return true
	}
	if junkNames[lower] {
		return true
	}
	return junkExtensions[strings.ToLower(filepath.Ext(lower))]
}

// fileOutcome carries one worker's result back to aggregation.
type fileOutcome struct {
	content   *SanitizedContent
	rejection *Rejection
}

// run drives the Enumerating → Processing → Aggregating → Complete
// state machine over the candidate list. Candidates must already be
// sorted. The returned result is complete even when individual files
// failed; only a batch-budget cutoff downgrades the state to partial.
func (a *Analyzer) run(ctx context.Context, candidates []string) *AnalysisResult {
	runID := a.newRunID()
	result := &AnalysisResult{
		RunID:     runID,
		State:     StateEnumerating,
		TotalSeen: len(candidates),
	}

	bctx, cancel := a.limiter.BatchContext(ctx)
	defer cancel()

	result.State = StateProcessing
	outcomes := make([]fileOutcome, len(candidates))
	var wg sync.WaitGroup
	for i, candidate := range candidates {
		if bctx.Err() != nil {
			outcomes[i] = fileOutcome{rejection: &Rejection{Path: candidate, Reason: ReasonTimeout}}
			continue
		}
		if err := a.limiter.Acquire(bctx); err != nil {
			outcomes[i] = fileOutcome{rejection: &Rejection{Path: candidate, Reason: ReasonTimeout}}
			continue
		}
		wg.Add(1)
		go func(i int, candidate string) {
			defer wg.Done()
			defer a.limiter.Release()
			outcomes[i] = a.processFile(bctx, candidate)
		}(i, candidate)
	}
	wg.Wait()

	result.State = StateAggregating
	byCategory := map[string][]SanitizedContent{}
	for _, o := range outcomes {
		switch {
		case o.content != nil:
			byCategory[o.content.Category] = append(byCategory[o.content.Category], *o.content)
			result.TotalAccepted++
		case o.rejection != nil:
			result.Rejected = append(result.Rejected, *o.rejection)
		}
	}
	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		files := byCategory[name]
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
		result.Categories = append(result.Categories, CategoryContent{Name: name, Files: files})
	}
	sort.Slice(result.Rejected, func(i, j int) bool { return result.Rejected[i].Path < result.Rejected[j].Path })

	result.State = StateComplete
	if bctx.Err() != nil && ctx.Err() == nil {
		result.State = StatePartial
	}

	a.events.Record(seclog.Event{
		Type:     seclog.EventAnalysisRun,
		Severity: seclog.SeverityInfo,
		Detail: map[string]any{
			"run_id":   runID,
			"seen":     result.TotalSeen,
			"accepted": result.TotalAccepted,
			"rejected": len(result.Rejected),
			"state":    string(result.State),
		},
	})
	return result
}

// processFile runs one candidate through the full pipeline. Every
// failure mode collapses into a rejection; nothing here can fail the
// batch.
func (a *Analyzer) processFile(ctx context.Context, candidate string) fileOutcome {
	rp, err := a.guard.Authorize(candidate)
	if err != nil {
		return rejectOutcome(candidate, ReasonPathTraversal)
	}

	info, err := a.statFile(rp.Abs())
	if err != nil || !info.Mode().IsRegular() {
		return rejectOutcome(rp.Rel(), ReasonUnreadable)
	}
	if err := a.limiter.CheckSize(rp.Rel(), info.Size()); err != nil {
		return rejectOutcome(rp.Rel(), ReasonFileTooLarge)
	}

	var content *SanitizedContent
	err = a.limiter.RunFile(ctx, rp.Rel(), func(context.Context) error {
		c, perr := a.extractAndSanitize(rp)
		content = c
		return perr
	})
	if err != nil {
		return rejectOutcome(rp.Rel(), classifyReason(err))
	}
	return fileOutcome{content: content}
}

// extractAndSanitize is the per-file body run under the wall-clock
// budget: detect, extract, sanitize.
func (a *Analyzer) extractAndSanitize(rp pathguard.ResourcePath) (*SanitizedContent, error) {
	data, err := a.readFile(rp.Abs())
	if err != nil {
		return nil, err
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	detection := a.registry.DetectFormat(rp.Rel(), head)
	if detection.Mismatch != "" {
		a.events.Record(seclog.Event{
			Type:     seclog.EventFormatMismatch,
			Severity: seclog.SeverityWarn,
			Detail: map[string]any{
				"path":   seclog.RedactPath(rp.Rel()),
				"detail": detection.Mismatch,
			},
		})
	}
	if detection.Format == processors.FormatUnknown {
		return nil, &processors.UnsupportedFormatError{Extension: path.Ext(rp.Rel())}
	}

	extraction, err := a.registry.Extract(detection.Format, data)
	if err != nil {
		a.events.Record(seclog.Event{
			Type:     seclog.EventExtractionFailed,
			Severity: seclog.SeverityWarn,
			Detail: map[string]any{
				"path":   seclog.RedactPath(rp.Rel()),
				"format": string(detection.Format),
				"error":  err.Error(),
			},
		})
		return nil, err
	}

	res, err := a.sanitizer.Sanitize(extraction.Text, "file:"+rp.Rel())
	if err != nil {
		return nil, err
	}

	warnings := append([]string(nil), extraction.Warnings...)
	if detection.Mismatch != "" {
		warnings = append(warnings, detection.Mismatch)
	}
	warnings = append(warnings, res.Anomalies...)

	return &SanitizedContent{
		Path:       rp.Rel(),
		Format:     string(detection.Format),
		Category:   categoryOf(rp.Rel()),
		Text:       res.Text,
		Structured: extraction.Structured,
		Warnings:   warnings,
	}, nil
}

// categoryOf derives a file's category from its immediate parent
// folder; files at the root fall into the uncategorized bucket.
func categoryOf(rel string) string {
	dir := path.Dir(rel)
	if dir == "." || dir == "/" {
		return Uncategorized
	}
	return path.Base(dir)
}

func rejectOutcome(p, reason string) fileOutcome {
	return fileOutcome{rejection: &Rejection{Path: p, Reason: reason}}
}

// classifyReason maps pipeline error types onto rejection reasons.
func classifyReason(err error) string {
	var (
		injErr     *sanitize.InjectionError
		longErr    *sanitize.TooLongError
		unsupErr   *processors.UnsupportedFormatError
		extractErr *processors.ExtractionError
		timeErr    *limits.TimeoutError
		sizeErr    *limits.SizeError
	)
	switch {
	case errors.As(err, &injErr):
		return ReasonInjectionDetected
	case errors.As(err, &longErr):
		return ReasonContentTooLong
	case errors.As(err, &unsupErr):
		return ReasonUnsupportedFormat
	case errors.As(err, &extractErr):
		return ReasonExtractionFailed
	case errors.As(err, &timeErr):
		return ReasonTimeout
	case errors.As(err, &sizeErr):
		return ReasonFileTooLarge
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return ReasonTimeout
	default:
		return ReasonUnreadable
	}
}
