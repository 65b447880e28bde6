// Package pathguard validates and normalizes filesystem paths against a
// configured base directory. It is the first gate every candidate file
// passes through: nothing is read from disk until Authorize has proven
// the resolved path is a descendant of the base.
//
// The guard never mutates the filesystem. Every rejection emits a
// security event with the violation kind and a redacted copy of the
// attempted path.
package pathguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/quill/internal/seclog"
)

// Violation kinds reported in TraversalError and security events.
const (
	ViolationEmpty      = "empty_path"
	ViolationTooLong    = "path_too_long"
	ViolationBadBytes   = "invalid_characters"
	ViolationAbsolute   = "absolute_not_allowed"
	ViolationComponent  = "dangerous_component"
	ViolationEscape     = "outside_base_directory"
	ViolationResolution = "resolution_failed"
)

// maxPathLength mirrors the common PATH_MAX ceiling; anything longer is
// hostile or broken.
const maxPathLength = 4096

// TraversalError reports a rejected path. The message carries only the
// violation kind; the attempted path goes to the security log, redacted,
// never to the caller-facing error string.
type TraversalError struct {
	Kind string
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("path rejected: %s", e.Kind)
}

// ResourcePath is a validated path guaranteed to resolve inside the
// guard's base directory. Immutable once constructed.
type ResourcePath struct {
	abs string
	rel string
}

// Abs returns the resolved absolute path, safe to open.
func (p ResourcePath) Abs() string { return p.abs }

// Rel returns the path relative to the base directory, using forward
// slashes. This is the only form that appears in caller-facing output.
func (p ResourcePath) Rel() string { return p.rel }

func (p ResourcePath) String() string { return p.rel }

// IsZero reports whether p was never authorized.
func (p ResourcePath) IsZero() bool { return p.abs == "" }

// Options controls guard behavior.
type Options struct {
	// AllowAbsolutePaths permits candidates that are already absolute,
	// as long as they still resolve inside the base directory.
	AllowAbsolutePaths bool
}

// Guard authorizes candidate paths against one base directory.
type Guard struct {
	base   string // canonicalized absolute base, no trailing separator
	opts   Options
	events *seclog.Log
}

// New creates a Guard for base. The base itself is canonicalized
// (absolute, symlinks resolved) up front so later containment checks
// cannot be defeated by a symlinked base. Fails if base does not exist
// or is not a directory.
func New(base string, opts Options, events *seclog.Log) (*Guard, error) {
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("base directory cannot be empty")
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolving base directory: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolving base directory: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base path is not a directory: %s", seclog.RedactPath(base))
	}
	return &Guard{base: filepath.Clean(resolved), opts: opts, events: events}, nil
}

// Base returns the canonicalized base directory.
func (g *Guard) Base() string { return g.base }

// Authorize validates candidate and returns its ResourcePath. The
// candidate may be relative to the base or, when AllowAbsolutePaths is
// set, absolute. All failures are *TraversalError and are recorded as
// security events.
func (g *Guard) Authorize(candidate string) (ResourcePath, error) {
	if kind := g.screen(candidate); kind != "" {
		return ResourcePath{}, g.reject(candidate, kind)
	}

	joined := candidate
	if !filepath.IsAbs(joined) {
		joined = filepath.Join(g.base, joined)
	}

	resolved, err := resolve(joined)
	if err != nil {
		return ResourcePath{}, g.reject(candidate, ViolationResolution)
	}

	rel, err := filepath.Rel(g.base, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ResourcePath{}, g.reject(candidate, ViolationEscape)
	}

	return ResourcePath{abs: resolved, rel: filepath.ToSlash(rel)}, nil
}

// screen applies the lexical checks that need no filesystem access.
// Returns the violation kind, or "" when the candidate passes.
func (g *Guard) screen(candidate string) string {
	if strings.TrimSpace(candidate) == "" {
		return ViolationEmpty
	}
	if len(candidate) > maxPathLength {
		return ViolationTooLong
	}
	for _, r := range candidate {
		if r == 0 || (r < 32 && r != '\t') {
			return ViolationBadBytes
		}
	}
	if filepath.IsAbs(candidate) && !g.opts.AllowAbsolutePaths {
		return ViolationAbsolute
	}
	// Split on both separator styles so mixed separators cannot smuggle
	// a traversal segment past the scan.
	for _, part := range strings.FieldsFunc(candidate, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." || part == "~" {
			return ViolationComponent
		}
	}
	return ""
}

// resolve canonicalizes a joined path. EvalSymlinks requires the target
// to exist; for not-yet-existing targets (e.g. output files) the parent
// directory is resolved instead and the final element re-attached.
func resolve(path string) (string, error) {
	cleaned := filepath.Clean(path)
	resolved, err := filepath.EvalSymlinks(cleaned)
	if err == nil {
		return filepath.Clean(resolved), nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(cleaned))
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, filepath.Base(cleaned)), nil
}

// reject records the violation and returns the caller-facing error.
func (g *Guard) reject(candidate, kind string) error {
	g.events.Record(seclog.Event{
		Type:     seclog.EventPathRejected,
		Severity: seclog.SeverityWarn,
		Detail: map[string]any{
			"violation":      kind,
			"attempted_path": seclog.RedactPath(candidate),
		},
	})
	return &TraversalError{Kind: kind}
}
