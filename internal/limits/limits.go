// Package limits enforces the resource budgets of the ingestion
// pipeline: file size ceilings, per-file and per-batch wall-clock
// budgets, a concurrency cap on in-flight extractions, and a
// token-bucket admission limiter on analysis requests. Each limit
// rejects only the offending file or request, never the process.
package limits

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/HendryAvila/quill/internal/seclog"
)

// SizeError reports a file rejected before its body was read.
type SizeError struct {
	Size  int64
	Limit int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("file too large: %d bytes exceeds limit of %d", e.Size, e.Limit)
}

// TimeoutError reports an operation cancelled by a wall-clock budget.
// Scope is "file" or "batch".
type TimeoutError struct {
	Scope string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s processing budget exceeded", e.Scope)
}

// RateLimitError reports a request refused at the admission boundary.
type RateLimitError struct {
	PerMinute int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per minute", e.PerMinute)
}

// Config carries the four independently tunable budgets.
type Config struct {
	MaxFileSizeBytes  int64
	FileTimeout       time.Duration
	BatchTimeout      time.Duration
	MaxConcurrent     int64
	RequestsPerMinute int
}

// Limiter applies the configured budgets. Safe for concurrent use.
type Limiter struct {
	cfg      Config
	slots    *semaphore.Weighted
	requests *rate.Limiter
	events   *seclog.Log
}

// New builds a Limiter; zero or negative config values fall back to
// safe defaults.
func New(cfg Config, events *seclog.Log) *Limiter {
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 50 * 1024 * 1024
	}
	if cfg.FileTimeout <= 0 {
		cfg.FileTimeout = 30 * time.Second
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 180 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}
	return &Limiter{
		cfg:      cfg,
		slots:    semaphore.NewWeighted(cfg.MaxConcurrent),
		requests: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute),
		events:   events,
	}
}

// Config returns the effective budgets after default substitution.
func (l *Limiter) Config() Config { return l.cfg }

// AdmitRequest consumes one token from the request bucket. Non-blocking:
// when the bucket is empty the request is refused immediately.
func (l *Limiter) AdmitRequest(source string) error {
	if l.requests.Allow() {
		return nil
	}
	l.events.Record(seclog.Event{
		Type:     seclog.EventRateLimited,
		Severity: seclog.SeverityWarn,
		Detail: map[string]any{
			"requests_per_minute": l.cfg.RequestsPerMinute,
			"source":              source,
		},
	})
	return &RateLimitError{PerMinute: l.cfg.RequestsPerMinute}
}

// CheckSize rejects a file by its stat size, before any read.
func (l *Limiter) CheckSize(path string, size int64) error {
	if size <= l.cfg.MaxFileSizeBytes {
		return nil
	}
	l.events.Record(seclog.Event{
		Type:     seclog.EventResourceLimit,
		Severity: seclog.SeverityWarn,
		Detail: map[string]any{
			"limit": "max_file_size",
			"path":  seclog.RedactPath(path),
			"size":  size,
			"max":   l.cfg.MaxFileSizeBytes,
		},
	})
	return &SizeError{Size: size, Limit: l.cfg.MaxFileSizeBytes}
}

// BatchContext derives the batch-wide deadline from ctx.
func (l *Limiter) BatchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, l.cfg.BatchTimeout)
}

// Acquire blocks until an extraction slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.slots.Acquire(ctx, 1); err != nil {
		return &TimeoutError{Scope: "batch"}
	}
	return nil
}

// Release frees an extraction slot taken by Acquire.
func (l *Limiter) Release() {
	l.slots.Release(1)
}

// RunFile executes fn under the per-file wall-clock budget. A budget
// overrun cancels fn's context and reports a file-scope TimeoutError;
// fn's own result is discarded in that case.
func (l *Limiter) RunFile(ctx context.Context, path string, fn func(context.Context) error) error {
	fctx, cancel := context.WithTimeout(ctx, l.cfg.FileTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(fctx) }()

	select {
	case err := <-done:
		return err
	case <-fctx.Done():
		scope := "file"
		if ctx.Err() != nil {
			scope = "batch"
		}
		l.events.Record(seclog.Event{
			Type:     seclog.EventResourceLimit,
			Severity: seclog.SeverityWarn,
			Detail: map[string]any{
				"limit": "processing_time",
				"scope": scope,
				"path":  seclog.RedactPath(path),
			},
		})
		return &TimeoutError{Scope: scope}
	}
}
