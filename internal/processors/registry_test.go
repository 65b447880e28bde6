package processors

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"sort"
	"strings"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name         string
		path         string
		head         []byte
		wantFormat   Format
		wantMismatch bool
	}{
		{"markdown by extension", "docs/readme.md", []byte("# Title\n"), FormatMarkdown, false},
		{"yaml by extension", "conf/app.yaml", []byte("key: value\n"), FormatYAML, false},
		{"json by extension and sniff", "data/config.json", []byte(`{"a": 1}`), FormatJSON, false},
		{"extension only, empty head", "notes.txt", nil, FormatText, false},
		{"unknown extension", "binary.xyz", []byte("garbage"), FormatUnknown, false},
		{"pdf masquerading as markdown", "evil.md", []byte("%PDF-1.4\n"), FormatPDF, true},
		{"json content in txt file", "data.txt", []byte(`{"k": "v"}`), FormatText, true},
		{"markdown with frontmatter", "post.md", []byte("---\ntitle: x\n---\n# Body\n"), FormatMarkdown, false},
		{"json content, unknown extension", "payload.dat", []byte(`[1, 2, 3]`), FormatJSON, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.DetectFormat(tt.path, tt.head)
			if d.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", d.Format, tt.wantFormat)
			}
			if (d.Mismatch != "") != tt.wantMismatch {
				t.Errorf("Mismatch = %q, want mismatch=%v", d.Mismatch, tt.wantMismatch)
			}
		})
	}
}

func TestSupportedIsSorted(t *testing.T) {
	exts := NewRegistry().Supported()
	if len(exts) == 0 {
		t.Fatal("no supported extensions")
	}
	if !sort.StringsAreSorted(exts) {
		t.Errorf("extensions not sorted: %v", exts)
	}
	for _, want := range []string{".md", ".json", ".yaml", ".pdf", ".png"} {
		found := false
		for _, e := range exts {
			if e == want {
				found = true
			}
		}
		if !found {
			t.Errorf("extension %s missing from %v", want, exts)
		}
	}
}

func TestExtractUnknownFormat(t *testing.T) {
	r := NewRegistry()
	_, err := r.Extract(FormatUnknown, []byte("x"))
	var uerr *UnsupportedFormatError
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v, want *UnsupportedFormatError", err)
	}
}

func TestMarkdownExtraction(t *testing.T) {
	r := NewRegistry()

	doc := `---
title: User Stories
owner: platform
---
# Stories

As a user I want [search](https://example.com/search).

## Details

` + "```go\nfunc main() {}\n```" + `
`
	ex, err := r.Extract(FormatMarkdown, []byte(doc))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(ex.Text, "As a user I want") {
		t.Errorf("text missing body: %q", ex.Text)
	}
	front, ok := ex.Structured["frontmatter"].(map[string]any)
	if !ok || front["title"] != "User Stories" {
		t.Errorf("frontmatter = %v", ex.Structured["frontmatter"])
	}
	headers, ok := ex.Structured["headers"].([]map[string]any)
	if !ok || len(headers) != 2 {
		t.Fatalf("headers = %v, want 2", ex.Structured["headers"])
	}
	if headers[0]["text"] != "Stories" || headers[0]["level"] != 1 {
		t.Errorf("first header = %v", headers[0])
	}
	links, _ := ex.Structured["links"].([]map[string]any)
	if len(links) != 1 || links[0]["target"] != "https://example.com/search" {
		t.Errorf("links = %v", links)
	}
	blocks, _ := ex.Structured["code_blocks"].([]map[string]any)
	if len(blocks) != 1 || blocks[0]["language"] != "go" {
		t.Errorf("code_blocks = %v", blocks)
	}
}

func TestMarkdownBadFrontmatterIsWarning(t *testing.T) {
	r := NewRegistry()
	ex, err := r.Extract(FormatMarkdown, []byte("---\n\t:bad yaml [\n---\n# Body\n"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(ex.Warnings) == 0 {
		t.Error("expected a frontmatter warning")
	}
	if !strings.Contains(ex.Text, "# Body") {
		t.Errorf("body lost: %q", ex.Text)
	}
}

func TestTextExtraction(t *testing.T) {
	r := NewRegistry()

	ex, err := r.Extract(FormatText, []byte("line one   \r\nline two\n\n\n\n\nline three\n"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := "line one\nline two\n\nline three"
	if ex.Text != want {
		t.Errorf("Text = %q, want %q", ex.Text, want)
	}

	_, err = r.Extract(FormatText, []byte{0xff, 0xfe, 0xfd})
	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("invalid UTF-8: error = %v, want *ExtractionError", err)
	}
}

func TestJSONExtraction(t *testing.T) {
	r := NewRegistry()

	ex, err := r.Extract(FormatJSON, []byte(`{"service": "quill", "replicas": 3, "tags": ["a", "b"]}`))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(ex.Text, "service: quill") {
		t.Errorf("readable text missing key: %q", ex.Text)
	}
	if !strings.Contains(ex.Text, "- a") {
		t.Errorf("readable text missing list item: %q", ex.Text)
	}
	if ex.Structured["service"] != "quill" {
		t.Errorf("structured data lost: %v", ex.Structured)
	}

	_, err = r.Extract(FormatJSON, []byte(`{"broken":`))
	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("invalid JSON: error = %v, want *ExtractionError", err)
	}
}

func TestYAMLExtraction(t *testing.T) {
	r := NewRegistry()

	ex, err := r.Extract(FormatYAML, []byte("architecture:\n  style: hexagonal\n  layers:\n    - domain\n    - adapters\n"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(ex.Text, "style: hexagonal") {
		t.Errorf("readable text = %q", ex.Text)
	}

	_, err = r.Extract(FormatYAML, []byte("\t- tabs are not yaml indentation\n  x"))
	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("invalid YAML: error = %v, want *ExtractionError", err)
	}
}

func TestDataRenderingDeterministic(t *testing.T) {
	r := NewRegistry()
	doc := []byte(`{"zebra": 1, "alpha": 2, "mid": {"b": 1, "a": 2}}`)

	first, err := r.Extract(FormatJSON, doc)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Extract(FormatJSON, doc)
	if err != nil {
		t.Fatal(err)
	}
	if first.Text != second.Text {
		t.Errorf("repeated extraction differs:\n%q\n%q", first.Text, second.Text)
	}
	if strings.Index(first.Text, "alpha") > strings.Index(first.Text, "zebra") {
		t.Errorf("keys not sorted: %q", first.Text)
	}
}

func TestPDFExtraction(t *testing.T) {
	r := NewRegistry()

	valid := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Page >>\nendobj\nstream\nBT (Project Overview) Tj ET\nendstream\n%%EOF")
	ex, err := r.Extract(FormatPDF, valid)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(ex.Text, "Project Overview") {
		t.Errorf("Text = %q, want text layer content", ex.Text)
	}
	if ex.Structured["page_count"] != 1 {
		t.Errorf("page_count = %v, want 1", ex.Structured["page_count"])
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"not a pdf", []byte("hello world")},
		{"encrypted", []byte("%PDF-1.4\n<< /Encrypt 5 0 R >>\nBT (x) Tj ET")},
		{"no text layer", []byte("%PDF-1.4\n<< /Type /Page >>\n%%EOF")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Extract(FormatPDF, tt.data)
			var xerr *ExtractionError
			if !errors.As(err, &xerr) {
				t.Fatalf("error = %v, want *ExtractionError", err)
			}
		})
	}
}

func TestImageExtraction(t *testing.T) {
	r := NewRegistry()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 2))); err != nil {
		t.Fatal(err)
	}
	ex, err := r.Extract(FormatImage, buf.Bytes())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if ex.Text != "" {
		t.Errorf("Text = %q, want empty", ex.Text)
	}
	if ex.Structured["width"] != 4 || ex.Structured["height"] != 2 {
		t.Errorf("dimensions = %vx%v, want 4x2", ex.Structured["width"], ex.Structured["height"])
	}
	if len(ex.Warnings) == 0 {
		t.Error("expected a no-OCR warning")
	}

	_, err = r.Extract(FormatImage, []byte("not an image"))
	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("truncated image: error = %v, want *ExtractionError", err)
	}
}
