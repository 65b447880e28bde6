// Package processors maps detected file formats to content extractors.
//
// Detection combines the file extension with a lightweight content
// sniff, so a renamed binary cannot masquerade as markdown. Every
// extractor is total over malformed input: corrupt or truncated files
// yield an ExtractionError, never a panic, and never abort the batch.
package processors

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
)

// Format identifies a supported content format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatPDF      Format = "pdf"
	FormatImage    Format = "image"
	FormatUnknown  Format = "unknown"
)

// Extraction is what an extractor produces from raw bytes.
type Extraction struct {
	Text       string
	Structured map[string]any
	Warnings   []string
}

// Extractor turns raw file bytes into text plus optional structure.
type Extractor interface {
	Extract(data []byte) (Extraction, error)
}

// UnsupportedFormatError reports a file whose format has no extractor.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %q", e.Extension)
}

// ExtractionError reports an extractor failing on malformed input.
type ExtractionError struct {
	Format Format
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed: %s", e.Format, e.Reason)
}

// extensionFormats maps lowercased file extensions to formats.
var extensionFormats = map[string]Format{
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".txt":      FormatText,
	".text":     FormatText,
	".rst":      FormatText,
	".json":     FormatJSON,
	".yaml":     FormatYAML,
	".yml":      FormatYAML,
	".pdf":      FormatPDF,
	".png":      FormatImage,
	".jpg":      FormatImage,
	".jpeg":     FormatImage,
	".gif":      FormatImage,
	".bmp":      FormatImage,
}

// Detection is the outcome of format detection for one file.
type Detection struct {
	Format Format
	// Mismatch is set when the extension and the sniffed content
	// disagree; the sniffed format wins for binary types.
	Mismatch string
}

// Registry dispatches files to extractors by format.
type Registry struct {
	extractors map[Format]Extractor
}

// NewRegistry returns a registry with the built-in extractors wired.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[Format]Extractor)}
	r.Register(FormatMarkdown, &markdownExtractor{})
	r.Register(FormatText, &textExtractor{})
	r.Register(FormatJSON, &jsonExtractor{})
	r.Register(FormatYAML, &yamlExtractor{})
	r.Register(FormatPDF, &pdfExtractor{})
	r.Register(FormatImage, &imageExtractor{})
	return r
}

// Register installs (or replaces) the extractor for a format.
func (r *Registry) Register(f Format, e Extractor) {
	r.extractors[f] = e
}

// Supported returns the sorted list of extensions with an extractor.
func (r *Registry) Supported() []string {
	var exts []string
	for ext, f := range extensionFormats {
		if _, ok := r.extractors[f]; ok {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// FormatFor returns the format registered for an extension, or
// FormatUnknown.
func (r *Registry) FormatFor(ext string) Format {
	f, ok := extensionFormats[strings.ToLower(ext)]
	if !ok {
		return FormatUnknown
	}
	if _, ok := r.extractors[f]; !ok {
		return FormatUnknown
	}
	return f
}

// DetectFormat determines the format of a file from its path and the
// first bytes of its content. head may be empty when the body has not
// been read yet; detection then falls back to the extension alone.
func (r *Registry) DetectFormat(path string, head []byte) Detection {
	ext := strings.ToLower(filepath.Ext(path))
	byExt, extKnown := extensionFormats[ext]

	sniffed := sniff(head)

	switch {
	case sniffed == FormatUnknown || len(head) == 0:
		if extKnown {
			return Detection{Format: byExt}
		}
		return Detection{Format: FormatUnknown}
	case !extKnown:
		return Detection{Format: sniffed, Mismatch: fmt.Sprintf("unrecognized extension %q, content sniffed as %s", ext, sniffed)}
	case sniffed != byExt:
		// Binary sniffs are authoritative: a PDF renamed to .md is a
		// PDF. Text-family disagreements keep the extension, since a
		// JSON probe matching inside a markdown file is not conclusive.
		if sniffed == FormatPDF || sniffed == FormatImage {
			return Detection{Format: sniffed, Mismatch: fmt.Sprintf("extension %q but content is %s", ext, sniffed)}
		}
		// Markdown with YAML frontmatter legitimately sniffs as YAML.
		if byExt == FormatMarkdown && sniffed == FormatYAML {
			return Detection{Format: byExt}
		}
		return Detection{Format: byExt, Mismatch: fmt.Sprintf("extension %q but content resembles %s", ext, sniffed)}
	default:
		return Detection{Format: byExt}
	}
}

// Extract dispatches data to the extractor for format.
func (r *Registry) Extract(format Format, data []byte) (Extraction, error) {
	e, ok := r.extractors[format]
	if !ok {
		return Extraction{}, &UnsupportedFormatError{Extension: string(format)}
	}
	return e.Extract(data)
}

// sniff classifies content by magic bytes and cheap structural probes.
func sniff(head []byte) Format {
	if len(head) == 0 {
		return FormatUnknown
	}
	if kind, err := filetype.Match(head); err == nil {
		switch kind.Extension {
		case "pdf":
			return FormatPDF
		case "png", "jpg", "gif", "bmp", "tif", "webp":
			return FormatImage
		}
	}
	trimmed := strings.TrimLeftFunc(string(head), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\uFEFF'
	})
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return FormatJSON
	}
	if strings.HasPrefix(trimmed, "---\n") || strings.HasPrefix(trimmed, "---\r\n") {
		return FormatYAML
	}
	return FormatUnknown
}
